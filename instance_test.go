package schemakit_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/schemakit"
	"github.com/dmitrymomot/schemakit/formats"
)

func userPlan(t *testing.T) *schemakit.Plan {
	t.Helper()
	return schemakit.MustRegister(schemakit.Definition{
		Name: "User",
		Fields: []schemakit.FieldDecl{
			schemakit.F("name", schemakit.String, schemakit.MinLen(2), schemakit.MaxLen(100)),
			schemakit.F("email", schemakit.String, formats.Email()),
			schemakit.F("age", schemakit.Int, schemakit.Ge(18), schemakit.Le(120)),
		},
	})
}

func TestPlan_New_Success(t *testing.T) {
	plan := userPlan(t)

	inst, err := plan.New(map[string]any{
		"name":  "Al",
		"email": "a@b.com",
		"age":   18,
	})
	require.NoError(t, err)

	name, ok := inst.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Al", name)

	age, ok := inst.Get("age")
	require.True(t, ok)
	assert.Equal(t, int64(18), age, "inclusive lower bound admits the bound itself")
}

func TestPlan_New_CollectsAllErrors(t *testing.T) {
	plan := userPlan(t)

	_, err := plan.New(map[string]any{
		"name":  "A",
		"email": "bad",
		"age":   200,
	})
	require.Error(t, err)

	verrs := schemakit.ExtractValidationErrors(err)
	require.NotNil(t, verrs)
	require.Len(t, verrs, 3, "one entry per invalid field, no fail-fast")
	assert.True(t, verrs.Has("name"))
	assert.True(t, verrs.Has("email"))
	assert.True(t, verrs.Has("age"))
}

func TestPlan_New_MissingFields(t *testing.T) {
	plan := userPlan(t)

	_, err := plan.New(map[string]any{})
	verrs := schemakit.ExtractValidationErrors(err)
	require.NotNil(t, verrs)
	require.Len(t, verrs, 3)
	for _, e := range verrs {
		assert.Equal(t, schemakit.KindMissing, e.Kind)
		assert.Equal(t, "field required", e.Message)
	}
}

func TestPlan_New_BoundSemantics(t *testing.T) {
	plan := schemakit.MustRegister(schemakit.Definition{
		Name: "Measure",
		Fields: []schemakit.FieldDecl{
			schemakit.F("exclusive", schemakit.Float, schemakit.Gt(1.0)),
			schemakit.F("inclusive", schemakit.Float, schemakit.Ge(1.0)),
		},
	})

	t.Run("exclusive bound rejects the bound itself", func(t *testing.T) {
		_, err := plan.New(map[string]any{"exclusive": 1.0, "inclusive": 1.0})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, "exclusive", verrs[0].Field)
		assert.Equal(t, schemakit.KindRange, verrs[0].Kind)
	})

	t.Run("next representable value passes", func(t *testing.T) {
		next := 1.0000000000000002
		inst, err := plan.New(map[string]any{"exclusive": next, "inclusive": 1.0})
		require.NoError(t, err)
		v, _ := inst.Get("exclusive")
		assert.Equal(t, next, v)
	})
}

func TestPlan_New_MultipleOf(t *testing.T) {
	plan := schemakit.MustRegister(schemakit.Definition{
		Name: "Score",
		Fields: []schemakit.FieldDecl{
			schemakit.F("score", schemakit.Float, schemakit.MultipleOf(0.5)),
		},
	})

	t.Run("rejects non-multiple", func(t *testing.T) {
		_, err := plan.New(map[string]any{"score": 1.3})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, schemakit.KindMultipleOf, verrs[0].Kind)
	})

	t.Run("accepts exact multiple", func(t *testing.T) {
		inst, err := plan.New(map[string]any{"score": 1.5})
		require.NoError(t, err)
		v, _ := inst.Get("score")
		assert.Equal(t, 1.5, v)
	})

	t.Run("integral multiple on int fields", func(t *testing.T) {
		intPlan := schemakit.MustRegister(schemakit.Definition{
			Name: "Even",
			Fields: []schemakit.FieldDecl{
				schemakit.F("n", schemakit.Int, schemakit.MultipleOf(2)),
			},
		})
		_, err := intPlan.New(map[string]any{"n": 7})
		require.Error(t, err)
		inst, err := intPlan.New(map[string]any{"n": 8})
		require.NoError(t, err)
		v, _ := inst.Get("n")
		assert.Equal(t, int64(8), v)
	})
}

func TestPlan_New_Coercion(t *testing.T) {
	plan := schemakit.MustRegister(schemakit.Definition{
		Name: "Nums",
		Fields: []schemakit.FieldDecl{
			schemakit.F("count", schemakit.Int),
			schemakit.F("ratio", schemakit.Float),
		},
	})

	t.Run("int to float widens", func(t *testing.T) {
		inst, err := plan.New(map[string]any{"count": 1, "ratio": 2})
		require.NoError(t, err)
		v, _ := inst.Get("ratio")
		assert.Equal(t, 2.0, v)
	})

	t.Run("float to int truncates toward zero", func(t *testing.T) {
		inst, err := plan.New(map[string]any{"count": 5.5, "ratio": 0.0})
		require.NoError(t, err)
		v, _ := inst.Get("count")
		assert.Equal(t, int64(5), v)
	})

	t.Run("bool never satisfies a numeric field", func(t *testing.T) {
		_, err := plan.New(map[string]any{"count": true, "ratio": false})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 2)
		assert.Equal(t, schemakit.KindType, verrs[0].Kind)
		assert.Equal(t, []string{"expected int, got bool"}, verrs.Get("count"))
	})

	t.Run("string never coerces to numbers", func(t *testing.T) {
		_, err := plan.New(map[string]any{"count": "5", "ratio": "1.5"})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 2)
	})
}

func TestPlan_New_StrictMode(t *testing.T) {
	plan := schemakit.MustRegister(schemakit.Definition{
		Name:   "Strict",
		Config: schemakit.Config{Strict: true},
		Fields: []schemakit.FieldDecl{
			schemakit.F("count", schemakit.Int),
			schemakit.F("note", schemakit.String, schemakit.Lax()),
		},
	})

	t.Run("rejects cross-type numeric input", func(t *testing.T) {
		_, err := plan.New(map[string]any{"count": 5.0, "note": "x"})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, schemakit.KindType, verrs[0].Kind)
	})

	t.Run("rejects bool for strict int", func(t *testing.T) {
		_, err := plan.New(map[string]any{"count": true, "note": "x"})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, schemakit.KindType, verrs[0].Kind)
	})

	t.Run("accepts exact runtime type", func(t *testing.T) {
		inst, err := plan.New(map[string]any{"count": int64(5), "note": "x"})
		require.NoError(t, err)
		v, _ := inst.Get("count")
		assert.Equal(t, int64(5), v)
	})
}

func TestPlan_New_StringTransforms(t *testing.T) {
	plan := schemakit.MustRegister(schemakit.Definition{
		Name: "Form",
		Fields: []schemakit.FieldDecl{
			schemakit.F("email", schemakit.String, schemakit.StripWhitespace(), schemakit.ToLower()),
			schemakit.F("code", schemakit.String, schemakit.ToUpper(), schemakit.MaxLen(3)),
		},
	})

	t.Run("transforms apply before length checks", func(t *testing.T) {
		inst, err := plan.New(map[string]any{
			"email": "  User@Example.COM  ",
			"code":  "abc",
		})
		require.NoError(t, err)
		email, _ := inst.Get("email")
		assert.Equal(t, "user@example.com", email)
		code, _ := inst.Get("code")
		assert.Equal(t, "ABC", code)
	})

	t.Run("length measured after strip", func(t *testing.T) {
		strict := schemakit.MustRegister(schemakit.Definition{
			Name: "Tag",
			Fields: []schemakit.FieldDecl{
				schemakit.F("tag", schemakit.String, schemakit.StripWhitespace(), schemakit.MinLen(2)),
			},
		})
		_, err := strict.New(map[string]any{"tag": "  a  "})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, schemakit.KindLength, verrs[0].Kind)
	})

	t.Run("record-wide transforms apply to every string field", func(t *testing.T) {
		rec := schemakit.MustRegister(schemakit.Definition{
			Name:   "Trimmed",
			Config: schemakit.Config{StrStripWhitespace: true},
			Fields: []schemakit.FieldDecl{
				schemakit.F("a", schemakit.String),
				schemakit.F("b", schemakit.String),
			},
		})
		inst, err := rec.New(map[string]any{"a": " x ", "b": " y "})
		require.NoError(t, err)
		a, _ := inst.Get("a")
		b, _ := inst.Get("b")
		assert.Equal(t, "x", a)
		assert.Equal(t, "y", b)
	})
}

func TestPlan_New_LengthCountsCharacters(t *testing.T) {
	plan := schemakit.MustRegister(schemakit.Definition{
		Name: "Name",
		Fields: []schemakit.FieldDecl{
			schemakit.F("name", schemakit.String, schemakit.MaxLen(4)),
		},
	})

	t.Run("multibyte runes count once", func(t *testing.T) {
		inst, err := plan.New(map[string]any{"name": "日本語名"})
		require.NoError(t, err)
		v, _ := inst.Get("name")
		assert.Equal(t, "日本語名", v)
	})

	t.Run("combining sequences normalize before counting", func(t *testing.T) {
		// e + combining acute is two runes but one character after NFC.
		inst, err := plan.New(map[string]any{"name": "café"})
		require.NoError(t, err)
		v, _ := inst.Get("name")
		assert.Equal(t, "café", v)
	})

	t.Run("byte length is never used", func(t *testing.T) {
		_, err := plan.New(map[string]any{"name": "abcde"})
		require.Error(t, err)
	})
}

func TestPlan_New_Pattern(t *testing.T) {
	plan := schemakit.MustRegister(schemakit.Definition{
		Name: "Sku",
		Fields: []schemakit.FieldDecl{
			schemakit.F("sku", schemakit.String, schemakit.Pattern(`[A-Z]{3}-\d+`)),
		},
	})

	t.Run("matches at the start of the value", func(t *testing.T) {
		inst, err := plan.New(map[string]any{"sku": "ABC-123-suffix"})
		require.NoError(t, err)
		v, _ := inst.Get("sku")
		assert.Equal(t, "ABC-123-suffix", v)
	})

	t.Run("rejects a match that starts later", func(t *testing.T) {
		_, err := plan.New(map[string]any{"sku": "xxABC-123"})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, schemakit.KindPattern, verrs[0].Kind)
	})
}

func TestPlan_New_UniqueItems(t *testing.T) {
	plan := schemakit.MustRegister(schemakit.Definition{
		Name: "Tags",
		Fields: []schemakit.FieldDecl{
			schemakit.F("tags", schemakit.List, schemakit.UniqueItems()),
		},
	})

	t.Run("accepts distinct items", func(t *testing.T) {
		_, err := plan.New(map[string]any{"tags": []any{"a", "b", int64(1)}})
		require.NoError(t, err)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := plan.New(map[string]any{"tags": []any{"a", "b", "a"}})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, schemakit.KindUnique, verrs[0].Kind)
	})

	t.Run("distinguishes equal-looking values of different types", func(t *testing.T) {
		_, err := plan.New(map[string]any{"tags": []any{int64(1), "1"}})
		require.NoError(t, err)
	})
}

func TestPlan_New_Defaults(t *testing.T) {
	t.Run("static default applies when field absent", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name: "Doc",
			Fields: []schemakit.FieldDecl{
				schemakit.F("title", schemakit.String),
				schemakit.F("draft", schemakit.Bool, schemakit.Attrs{Default: true}),
			},
		})
		inst, err := plan.New(map[string]any{"title": "x"})
		require.NoError(t, err)
		v, _ := inst.Get("draft")
		assert.Equal(t, true, v)
		assert.False(t, inst.WasSet("draft"))
		assert.True(t, inst.WasSet("title"))
	})

	t.Run("mutable default containers are isolated per instance", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name: "Post",
			Fields: []schemakit.FieldDecl{
				schemakit.F("tags", schemakit.List, schemakit.Attrs{Default: []any{"initial"}}),
			},
		})

		first, err := plan.New(map[string]any{})
		require.NoError(t, err)
		second, err := plan.New(map[string]any{})
		require.NoError(t, err)

		tags, _ := first.Get("tags")
		tags.([]any)[0] = "mutated"

		fresh, _ := second.Get("tags")
		assert.Equal(t, []any{"initial"}, fresh, "instances never share a default container")
	})

	t.Run("nested instance default stays shared and usable", func(t *testing.T) {
		inner := schemakit.MustRegister(schemakit.Definition{
			Name:   "DefaultInner",
			Fields: []schemakit.FieldDecl{schemakit.F("value", schemakit.Int)},
		})
		def, err := inner.New(map[string]any{"value": 42})
		require.NoError(t, err)

		outer := schemakit.MustRegister(schemakit.Definition{
			Name: "DefaultOuter",
			Fields: []schemakit.FieldDecl{
				schemakit.F("inner", inner, schemakit.Attrs{Default: def}),
			},
		})

		first, err := outer.New(map[string]any{})
		require.NoError(t, err)

		got, ok := first.Get("inner")
		require.True(t, ok)
		assert.Same(t, def, got)

		v, _ := got.(*schemakit.Instance).Get("value")
		assert.Equal(t, int64(42), v)
		assert.Equal(t, map[string]any{"inner": map[string]any{"value": int64(42)}}, first.Dump())

		second, err := outer.New(map[string]any{})
		require.NoError(t, err)
		sharedWithFirst, _ := second.Get("inner")
		assert.Same(t, got, sharedWithFirst)
	})

	t.Run("nested instance default applies on the per-field path", func(t *testing.T) {
		inner := schemakit.MustRegister(schemakit.Definition{
			Name:   "SlowInner",
			Fields: []schemakit.FieldDecl{schemakit.F("value", schemakit.Int)},
		})
		def, err := inner.New(map[string]any{"value": 7})
		require.NoError(t, err)

		outer := schemakit.MustRegister(schemakit.Definition{
			Name: "SlowOuter",
			Fields: []schemakit.FieldDecl{
				schemakit.F("inner", inner, schemakit.Attrs{Default: def}),
			},
			After: []func(*schemakit.Instance) error{
				func(*schemakit.Instance) error { return nil },
			},
		})

		inst, err := outer.New(map[string]any{})
		require.NoError(t, err)

		got, _ := inst.Get("inner")
		assert.Same(t, def, got)
	})

	t.Run("factory runs per instance", func(t *testing.T) {
		n := 0
		plan := schemakit.MustRegister(schemakit.Definition{
			Name: "Seq",
			Fields: []schemakit.FieldDecl{
				schemakit.F("n", schemakit.Int, schemakit.Attrs{Factory: func() any {
					n++
					return int64(n)
				}}),
			},
		})

		first, err := plan.New(map[string]any{})
		require.NoError(t, err)
		second, err := plan.New(map[string]any{})
		require.NoError(t, err)

		v1, _ := first.Get("n")
		v2, _ := second.Get("n")
		assert.Equal(t, int64(1), v1)
		assert.Equal(t, int64(2), v2)
	})
}

func TestPlan_New_AliasPrecedence(t *testing.T) {
	plan := schemakit.MustRegister(schemakit.Definition{
		Name: "User",
		Fields: []schemakit.FieldDecl{
			schemakit.F("username", schemakit.String, schemakit.Attrs{Alias: "user_name"}),
		},
	})

	t.Run("alias accepted from input", func(t *testing.T) {
		inst, err := plan.New(map[string]any{"user_name": "alice"})
		require.NoError(t, err)
		v, _ := inst.Get("username")
		assert.Equal(t, "alice", v)
	})

	t.Run("field name still accepted", func(t *testing.T) {
		inst, err := plan.New(map[string]any{"username": "bob"})
		require.NoError(t, err)
		v, _ := inst.Get("username")
		assert.Equal(t, "bob", v)
	})

	t.Run("alias wins over field name when both present", func(t *testing.T) {
		inst, err := plan.New(map[string]any{"username": "bob", "user_name": "alice"})
		require.NoError(t, err)
		v, _ := inst.Get("username")
		assert.Equal(t, "alice", v)
	})

	t.Run("validation alias outranks alias", func(t *testing.T) {
		ranked := schemakit.MustRegister(schemakit.Definition{
			Name: "Ranked",
			Fields: []schemakit.FieldDecl{
				schemakit.F("id", schemakit.String, schemakit.Attrs{
					Alias:           "identifier",
					ValidationAlias: "ID",
				}),
			},
		})
		inst, err := ranked.New(map[string]any{"identifier": "low", "ID": "high"})
		require.NoError(t, err)
		v, _ := inst.Get("id")
		assert.Equal(t, "high", v)
	})
}

func TestPlan_New_ExtraPolicy(t *testing.T) {
	fields := []schemakit.FieldDecl{schemakit.F("name", schemakit.String)}

	t.Run("ignore drops unknown keys", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{Name: "A", Fields: fields})
		inst, err := plan.New(map[string]any{"name": "x", "z": 1})
		require.NoError(t, err)
		assert.Nil(t, inst.Extra())
	})

	t.Run("forbid reports each unknown key", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "B",
			Config: schemakit.Config{Extra: schemakit.ExtraForbid},
			Fields: fields,
		})
		_, err := plan.New(map[string]any{"name": "x", "z": 1})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, "z", verrs[0].Field)
		assert.Equal(t, schemakit.KindExtra, verrs[0].Kind)
	})

	t.Run("forbid errors are independent of other field outcomes", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "C",
			Config: schemakit.Config{Extra: schemakit.ExtraForbid},
			Fields: []schemakit.FieldDecl{schemakit.F("n", schemakit.Int, schemakit.Gt(0))},
		})
		_, err := plan.New(map[string]any{"n": -1, "z": 1})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 2)
		assert.True(t, verrs.Has("n"))
		assert.True(t, verrs.Has("z"))
	})

	t.Run("allow retains unknown keys", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "D",
			Config: schemakit.Config{Extra: schemakit.ExtraAllow},
			Fields: fields,
		})
		inst, err := plan.New(map[string]any{"name": "x", "z": 1, "w": "two"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"z": 1, "w": "two"}, inst.Extra())
	})

	t.Run("aliases count as recognized keys", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "E",
			Config: schemakit.Config{Extra: schemakit.ExtraForbid},
			Fields: []schemakit.FieldDecl{
				schemakit.F("name", schemakit.String, schemakit.Attrs{Alias: "display_name"}),
			},
		})
		_, err := plan.New(map[string]any{"display_name": "x"})
		require.NoError(t, err)
	})
}

func TestPlan_New_NestedRecords(t *testing.T) {
	inner := schemakit.MustRegister(schemakit.Definition{
		Name: "Inner",
		Fields: []schemakit.FieldDecl{
			schemakit.F("value", schemakit.Int, schemakit.Gt(0)),
		},
	})
	outer := schemakit.MustRegister(schemakit.Definition{
		Name: "Outer",
		Fields: []schemakit.FieldDecl{
			schemakit.F("inner", inner),
		},
	})

	t.Run("validates mapping recursively", func(t *testing.T) {
		inst, err := outer.New(map[string]any{"inner": map[string]any{"value": 7}})
		require.NoError(t, err)

		nested, ok := inst.Get("inner")
		require.True(t, ok)
		v, _ := nested.(*schemakit.Instance).Get("value")
		assert.Equal(t, int64(7), v)
	})

	t.Run("labels nested failures with the dotted path", func(t *testing.T) {
		_, err := outer.New(map[string]any{"inner": map[string]any{"value": -1}})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, "inner.value", verrs[0].Field)
	})

	t.Run("accepts an existing instance by reference", func(t *testing.T) {
		existing, err := inner.New(map[string]any{"value": 3})
		require.NoError(t, err)

		inst, err := outer.New(map[string]any{"inner": existing})
		require.NoError(t, err)

		got, _ := inst.Get("inner")
		assert.Same(t, existing, got)
	})

	t.Run("rejects an instance of a different record type", func(t *testing.T) {
		other := schemakit.MustRegister(schemakit.Definition{
			Name:   "Other",
			Fields: []schemakit.FieldDecl{schemakit.F("value", schemakit.Int)},
		})
		wrong, err := other.New(map[string]any{"value": 1})
		require.NoError(t, err)

		_, err = outer.New(map[string]any{"inner": wrong})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, schemakit.KindType, verrs[0].Kind)
	})

	t.Run("two levels of nesting extend the path", func(t *testing.T) {
		top := schemakit.MustRegister(schemakit.Definition{
			Name:   "Top",
			Fields: []schemakit.FieldDecl{schemakit.F("outer", outer)},
		})
		_, err := top.New(map[string]any{"outer": map[string]any{"inner": map[string]any{"value": 0}}})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, "outer.inner.value", verrs[0].Field)
	})
}

func TestPlan_New_RecordValidators(t *testing.T) {
	t.Run("before validators rewrite the input", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "Login",
			Fields: []schemakit.FieldDecl{schemakit.F("username", schemakit.String)},
			Before: []func(map[string]any) (map[string]any, error){
				func(data map[string]any) (map[string]any, error) {
					out := map[string]any{}
					for k, v := range data {
						out[k] = v
					}
					if legacy, ok := out["user"]; ok {
						out["username"] = legacy
					}
					return out, nil
				},
			},
		})
		inst, err := plan.New(map[string]any{"user": "alice"})
		require.NoError(t, err)
		v, _ := inst.Get("username")
		assert.Equal(t, "alice", v)
	})

	t.Run("before failure reports under the record root", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "Login",
			Fields: []schemakit.FieldDecl{schemakit.F("username", schemakit.String)},
			Before: []func(map[string]any) (map[string]any, error){
				func(data map[string]any) (map[string]any, error) {
					return nil, errors.New("payload rejected")
				},
			},
		})
		_, err := plan.New(map[string]any{"username": "x"})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, "__root__", verrs[0].Field)
		assert.Equal(t, "payload rejected", verrs[0].Message)
	})

	t.Run("after validators see the validated instance", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name: "Range",
			Fields: []schemakit.FieldDecl{
				schemakit.F("low", schemakit.Int),
				schemakit.F("high", schemakit.Int),
			},
			After: []func(*schemakit.Instance) error{
				func(inst *schemakit.Instance) error {
					low, _ := inst.Get("low")
					high, _ := inst.Get("high")
					if low.(int64) > high.(int64) {
						return errors.New("low must not exceed high")
					}
					return nil
				},
			},
		})

		_, err := plan.New(map[string]any{"low": 1, "high": 10})
		require.NoError(t, err)

		_, err = plan.New(map[string]any{"low": 10, "high": 1})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, "__root__", verrs[0].Field)
	})

	t.Run("after validators never run when fields fail", func(t *testing.T) {
		ran := false
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "Guard",
			Fields: []schemakit.FieldDecl{schemakit.F("n", schemakit.Int, schemakit.Gt(0))},
			After: []func(*schemakit.Instance) error{
				func(inst *schemakit.Instance) error {
					ran = true
					return nil
				},
			},
		})
		_, err := plan.New(map[string]any{"n": -5})
		require.Error(t, err)
		assert.False(t, ran)
	})
}

func TestPlan_New_FieldValidators(t *testing.T) {
	t.Run("run after built-in checks and may transform", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "Tag",
			Fields: []schemakit.FieldDecl{schemakit.F("tag", schemakit.String, schemakit.MinLen(1))},
			FieldValidators: map[string][]func(any) (any, error){
				"tag": {
					func(v any) (any, error) { return "#" + v.(string), nil },
				},
			},
		})
		inst, err := plan.New(map[string]any{"tag": "go"})
		require.NoError(t, err)
		v, _ := inst.Get("tag")
		assert.Equal(t, "#go", v)
	})

	t.Run("failure reports as a custom field error", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "Handle",
			Fields: []schemakit.FieldDecl{schemakit.F("handle", schemakit.String)},
			FieldValidators: map[string][]func(any) (any, error){
				"handle": {
					func(v any) (any, error) {
						return nil, fmt.Errorf("handle %q is reserved", v)
					},
				},
			},
		})
		_, err := plan.New(map[string]any{"handle": "admin"})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, "handle", verrs[0].Field)
		assert.Equal(t, schemakit.KindCustom, verrs[0].Kind)
	})

	t.Run("chain runs in registration order", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "Seq",
			Fields: []schemakit.FieldDecl{schemakit.F("s", schemakit.String)},
			FieldValidators: map[string][]func(any) (any, error){
				"s": {
					func(v any) (any, error) { return v.(string) + "-1", nil },
					func(v any) (any, error) { return v.(string) + "-2", nil },
				},
			},
		})
		inst, err := plan.New(map[string]any{"s": "x"})
		require.NoError(t, err)
		v, _ := inst.Get("s")
		assert.Equal(t, "x-1-2", v)
	})
}

func TestInstance_Set(t *testing.T) {
	t.Run("assigns declared fields", func(t *testing.T) {
		plan := userPlan(t)
		inst, err := plan.New(map[string]any{"name": "Al", "email": "a@b.com", "age": 30})
		require.NoError(t, err)

		require.NoError(t, inst.Set("name", "Bo"))
		v, _ := inst.Get("name")
		assert.Equal(t, "Bo", v)
	})

	t.Run("rejects unknown fields immediately", func(t *testing.T) {
		plan := userPlan(t)
		inst, err := plan.New(map[string]any{"name": "Al", "email": "a@b.com", "age": 30})
		require.NoError(t, err)

		err = inst.Set("nickname", "x")
		require.ErrorIs(t, err, schemakit.ErrUnknownField)
		assert.False(t, schemakit.IsValidationError(err))
	})

	t.Run("frozen record rejects all assignment", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "Frozen",
			Config: schemakit.Config{Frozen: true},
			Fields: []schemakit.FieldDecl{schemakit.F("n", schemakit.Int)},
		})
		inst, err := plan.New(map[string]any{"n": 1})
		require.NoError(t, err)

		err = inst.Set("n", 2)
		require.ErrorIs(t, err, schemakit.ErrFrozen)

		v, _ := inst.Get("n")
		assert.Equal(t, int64(1), v)
	})

	t.Run("frozen field rejects assignment while others stay writable", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name: "Partial",
			Fields: []schemakit.FieldDecl{
				schemakit.F("id", schemakit.Int, schemakit.Attrs{Frozen: true}),
				schemakit.F("note", schemakit.String),
			},
		})
		inst, err := plan.New(map[string]any{"id": 1, "note": "a"})
		require.NoError(t, err)

		require.ErrorIs(t, inst.Set("id", 2), schemakit.ErrFrozen)
		require.NoError(t, inst.Set("note", "b"))
	})

	t.Run("validate assignment re-runs the field validator", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "Checked",
			Config: schemakit.Config{ValidateAssignment: true},
			Fields: []schemakit.FieldDecl{schemakit.F("n", schemakit.Int, schemakit.Gt(0))},
		})
		inst, err := plan.New(map[string]any{"n": 1})
		require.NoError(t, err)

		err = inst.Set("n", -1)
		require.Error(t, err)
		assert.True(t, schemakit.IsValidationError(err))

		require.NoError(t, inst.Set("n", 5.0))
		v, _ := inst.Get("n")
		assert.Equal(t, int64(5), v, "assignment coerces like construction")
	})

	t.Run("without validate assignment the value is stored as given", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "Unchecked",
			Fields: []schemakit.FieldDecl{schemakit.F("n", schemakit.Int, schemakit.Gt(0))},
		})
		inst, err := plan.New(map[string]any{"n": 1})
		require.NoError(t, err)

		require.NoError(t, inst.Set("n", -1))
		v, _ := inst.Get("n")
		assert.Equal(t, -1, v)
	})
}

func TestInstance_FieldsSet(t *testing.T) {
	plan := schemakit.MustRegister(schemakit.Definition{
		Name: "Doc",
		Fields: []schemakit.FieldDecl{
			schemakit.F("title", schemakit.String),
			schemakit.F("draft", schemakit.Bool, schemakit.Attrs{Default: true}),
			schemakit.F("views", schemakit.Int, schemakit.Attrs{Default: 0}),
		},
	})

	inst, err := plan.New(map[string]any{"title": "x", "views": 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "views"}, inst.FieldsSet())
}

func TestInstance_CopyAndEqual(t *testing.T) {
	plan := userPlan(t)

	inst, err := plan.New(map[string]any{"name": "Al", "email": "a@b.com", "age": 30})
	require.NoError(t, err)

	t.Run("copy with update revalidates", func(t *testing.T) {
		copied, err := inst.Copy(map[string]any{"age": 31})
		require.NoError(t, err)

		age, _ := copied.Get("age")
		assert.Equal(t, int64(31), age)

		orig, _ := inst.Get("age")
		assert.Equal(t, int64(30), orig)
	})

	t.Run("copy rejects invalid updates", func(t *testing.T) {
		_, err := inst.Copy(map[string]any{"age": 900})
		require.Error(t, err)
		assert.True(t, schemakit.IsValidationError(err))
	})

	t.Run("equal compares values under a shared plan", func(t *testing.T) {
		same, err := plan.New(map[string]any{"name": "Al", "email": "a@b.com", "age": 30})
		require.NoError(t, err)
		assert.True(t, inst.Equal(same))

		different, err := inst.Copy(map[string]any{"name": "Bo"})
		require.NoError(t, err)
		assert.False(t, inst.Equal(different))
		assert.False(t, inst.Equal(nil))
	})

	t.Run("copy rejects an unknown update key", func(t *testing.T) {
		_, err := inst.Copy(map[string]any{"nope": 1})
		require.ErrorIs(t, err, schemakit.ErrUnknownField)
		assert.False(t, schemakit.IsValidationError(err))
	})
}

func TestInstance_Copy_PreservesStoredState(t *testing.T) {
	t.Run("excluded fields carry over", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name: "Credentials",
			Fields: []schemakit.FieldDecl{
				schemakit.F("login", schemakit.String),
				schemakit.F("password", schemakit.String, schemakit.Attrs{Exclude: true}),
			},
		})
		inst, err := plan.New(map[string]any{"login": "al", "password": "hunter2"})
		require.NoError(t, err)

		copied, err := inst.Copy(map[string]any{"login": "bo"})
		require.NoError(t, err)

		pw, ok := copied.Get("password")
		require.True(t, ok)
		assert.Equal(t, "hunter2", pw)
	})

	t.Run("computed output never feeds back into the copy", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "Greeting",
			Config: schemakit.Config{Extra: schemakit.ExtraForbid},
			Fields: []schemakit.FieldDecl{
				schemakit.F("word", schemakit.String),
			},
			Computed: []schemakit.ComputedField{
				{
					Name: "shout",
					Fn: func(inst *schemakit.Instance) any {
						w, _ := inst.Get("word")
						return strings.ToUpper(w.(string))
					},
				},
			},
		})
		inst, err := plan.New(map[string]any{"word": "hi"})
		require.NoError(t, err)

		copied, err := inst.Copy(nil)
		require.NoError(t, err)
		assert.Equal(t, "HI", copied.Dump()["shout"])
	})

	t.Run("mutable containers do not stay shared", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name: "Bag",
			Fields: []schemakit.FieldDecl{
				schemakit.F("tags", schemakit.List),
			},
		})
		inst, err := plan.New(map[string]any{"tags": []any{"a", "b"}})
		require.NoError(t, err)

		copied, err := inst.Copy(nil)
		require.NoError(t, err)

		orig, _ := inst.Get("tags")
		orig.([]any)[0] = "mutated"

		fresh, _ := copied.Get("tags")
		assert.Equal(t, []any{"a", "b"}, fresh)
	})

	t.Run("nested instances stay shared by reference", func(t *testing.T) {
		inner := schemakit.MustRegister(schemakit.Definition{
			Name:   "CopyInner",
			Fields: []schemakit.FieldDecl{schemakit.F("value", schemakit.Int)},
		})
		outer := schemakit.MustRegister(schemakit.Definition{
			Name:   "CopyOuter",
			Fields: []schemakit.FieldDecl{schemakit.F("inner", inner)},
		})
		inst, err := outer.New(map[string]any{"inner": map[string]any{"value": 1}})
		require.NoError(t, err)

		copied, err := inst.Copy(nil)
		require.NoError(t, err)

		a, _ := inst.Get("inner")
		b, _ := copied.Get("inner")
		assert.Same(t, a, b)
	})

	t.Run("update failures aggregate", func(t *testing.T) {
		plan := userPlan(t)
		inst, err := plan.New(map[string]any{"name": "Al", "email": "a@b.com", "age": 30})
		require.NoError(t, err)

		_, err = inst.Copy(map[string]any{"age": 900, "name": "x"})
		verrs := schemakit.ExtractValidationErrors(err)
		require.Len(t, verrs, 2)
		assert.True(t, verrs.Has("age"))
		assert.True(t, verrs.Has("name"))
	})

	t.Run("equal sees excluded field differences", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name: "Secret",
			Fields: []schemakit.FieldDecl{
				schemakit.F("id", schemakit.Int),
				schemakit.F("token", schemakit.String, schemakit.Attrs{Exclude: true}),
			},
		})
		a, err := plan.New(map[string]any{"id": 1, "token": "t1"})
		require.NoError(t, err)
		b, err := plan.New(map[string]any{"id": 1, "token": "t2"})
		require.NoError(t, err)

		assert.False(t, a.Equal(b))
	})
}

func TestInstance_PrivateAndPostInit(t *testing.T) {
	t.Run("private attributes initialize per instance", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:    "Session",
			Fields:  []schemakit.FieldDecl{schemakit.F("user", schemakit.String)},
			Private: map[string]any{"attempts": 0},
		})

		first, err := plan.New(map[string]any{"user": "a"})
		require.NoError(t, err)
		second, err := plan.New(map[string]any{"user": "b"})
		require.NoError(t, err)

		first.SetPrivate("attempts", 3)

		v, ok := second.Private("attempts")
		require.True(t, ok)
		assert.Equal(t, 0, v)
	})

	t.Run("private attributes never appear in output", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:    "Session",
			Fields:  []schemakit.FieldDecl{schemakit.F("user", schemakit.String)},
			Private: map[string]any{"token": "secret"},
		})
		inst, err := plan.New(map[string]any{"user": "a"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"user": "a"}, inst.Dump())
	})

	t.Run("post init runs after successful construction", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "Counter",
			Fields: []schemakit.FieldDecl{schemakit.F("start", schemakit.Int)},
			PostInit: func(inst *schemakit.Instance) error {
				start, _ := inst.Get("start")
				inst.SetPrivate("cursor", start)
				return nil
			},
		})
		inst, err := plan.New(map[string]any{"start": 5})
		require.NoError(t, err)

		v, ok := inst.Private("cursor")
		require.True(t, ok)
		assert.Equal(t, int64(5), v)
	})

	t.Run("post init failure aborts construction", func(t *testing.T) {
		plan := schemakit.MustRegister(schemakit.Definition{
			Name:   "Strict",
			Fields: []schemakit.FieldDecl{schemakit.F("n", schemakit.Int)},
			PostInit: func(inst *schemakit.Instance) error {
				return errors.New("init rejected")
			},
		})
		_, err := plan.New(map[string]any{"n": 1})
		require.EqualError(t, err, "init rejected")
	})
}

func TestInstance_String(t *testing.T) {
	plan := schemakit.MustRegister(schemakit.Definition{
		Name: "Point",
		Fields: []schemakit.FieldDecl{
			schemakit.F("x", schemakit.Int),
			schemakit.F("y", schemakit.Int),
		},
	})
	inst, err := plan.New(map[string]any{"x": 1, "y": 2})
	require.NoError(t, err)
	assert.Equal(t, "Point(x=1, y=2)", inst.String())
}

func TestPlan_New_TierEquivalence(t *testing.T) {
	// The same declaration compiled with and without a tier-breaking field
	// must agree on every shared outcome.
	accelerated := schemakit.MustRegister(schemakit.Definition{
		Name: "A",
		Fields: []schemakit.FieldDecl{
			schemakit.F("name", schemakit.String, schemakit.MinLen(2)),
			schemakit.F("age", schemakit.Int, schemakit.Ge(0)),
		},
	})
	standard := schemakit.MustRegister(schemakit.Definition{
		Name: "B",
		Fields: []schemakit.FieldDecl{
			schemakit.F("name", schemakit.String, schemakit.MinLen(2)),
			schemakit.F("age", schemakit.Int, schemakit.Ge(0)),
		},
		After: []func(*schemakit.Instance) error{
			func(inst *schemakit.Instance) error { return nil },
		},
	})
	require.Equal(t, schemakit.TierAccelerated, accelerated.Tier())
	require.Equal(t, schemakit.TierStandard, standard.Tier())

	inputs := []map[string]any{
		{"name": "Al", "age": 3},
		{"name": "A", "age": -1},
		{"name": "Al"},
		{"age": 5.9},
		{},
	}

	for i, input := range inputs {
		t.Run(fmt.Sprintf("input %d", i), func(t *testing.T) {
			a, aerr := accelerated.New(input)
			b, berr := standard.New(input)

			if aerr == nil {
				require.NoError(t, berr)
				assert.Equal(t, a.Dump(), b.Dump())
				return
			}
			require.Error(t, berr)

			av := schemakit.ExtractValidationErrors(aerr)
			bv := schemakit.ExtractValidationErrors(berr)
			assert.Equal(t, bv, av, "tiers report identical error sets")
		})
	}
}

package permission

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptySetDeniesNonEmptyRequirements(t *testing.T) {
	empty := NewSet()
	cases := [][]string{
		{"suppliers:read"},
		{"suppliers:read", "products:read"},
		{"roles:read", "roles:update", "users:read"},
	}
	for _, codes := range cases {
		assert.False(t, HasAny(empty, codes), "HasAny(%v)", codes)
		assert.False(t, HasAll(empty, codes), "HasAll(%v)", codes)
		assert.False(t, CanAccessMenu(empty, codes), "CanAccessMenu(%v)", codes)
	}
	assert.False(t, HasAny(nil, []string{"suppliers:read"}))
}

func TestEmptyRequirementsAreVacuouslyTrue(t *testing.T) {
	sets := []Set{nil, NewSet(), NewSet("suppliers:read")}
	for _, set := range sets {
		assert.True(t, HasAny(set, nil))
		assert.True(t, HasAny(set, []string{}))
		assert.True(t, HasAll(set, nil))
		assert.True(t, HasAll(set, []string{}))
		assert.True(t, CanAccessMenu(set, nil))
	}
}

func TestMembership(t *testing.T) {
	set := NewSet("suppliers:read", "products:read")

	assert.True(t, Has(set, "suppliers", "read"))
	assert.False(t, Has(set, "suppliers", "delete"))
	assert.True(t, HasAny(set, []string{"suppliers:delete", "products:read"}))
	assert.False(t, HasAny(set, []string{"suppliers:delete", "roles:read"}))
	assert.True(t, HasAll(set, []string{"suppliers:read", "products:read"}))
	assert.False(t, HasAll(set, []string{"suppliers:read", "suppliers:delete"}))
}

func TestNewSetDropsBlanksAndDuplicates(t *testing.T) {
	set := NewSet("users:read", " users:read ", "", "roles:read")
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"roles:read", "users:read"}, set.Codes())
}

func TestParseCode(t *testing.T) {
	resource, action, ok := ParseCode("system_config:read")
	require.True(t, ok)
	assert.Equal(t, "system_config", resource)
	assert.Equal(t, "read", action)

	for _, bad := range []string{"", "users", ":read", "users:"} {
		_, _, ok := ParseCode(bad)
		assert.False(t, ok, bad)
	}
}

func TestSetJSON(t *testing.T) {
	raw, err := json.Marshal(NewSet("b:read", "a:read"))
	require.NoError(t, err)
	assert.JSONEq(t, `["a:read","b:read"]`, string(raw))

	var decoded Set
	require.NoError(t, json.Unmarshal([]byte(`["x:read","x:read","y:update"]`), &decoded))
	assert.Equal(t, 2, decoded.Len())
	assert.True(t, decoded.Contains("y:update"))
}

func TestCloneIsIndependent(t *testing.T) {
	set := NewSet("a:read")
	clone := set.Clone()
	clone["b:read"] = struct{}{}
	assert.False(t, set.Contains("b:read"))
}

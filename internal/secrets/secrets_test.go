package secrets

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelforge/wheelforge/internal/config"
)

func TestResolve(t *testing.T) {
	t.Setenv("WF_TEST_USER", "publisher")
	t.Setenv("WF_TEST_PASS", "hunter2secret")

	store, err := Resolve([]*config.Secret{
		{Name: "user", Env: "WF_TEST_USER"},
		{Name: "pass", Env: "WF_TEST_PASS"},
	})
	require.NoError(t, err)

	v, ok := store.Get("user")
	assert.True(t, ok)
	assert.Equal(t, "publisher", v)
	assert.Equal(t, []string{"pass", "user"}, store.Names())
}

func TestResolveMissing(t *testing.T) {
	t.Setenv("WF_TEST_USER", "publisher")

	_, err := Resolve([]*config.Secret{
		{Name: "user", Env: "WF_TEST_USER"},
		{Name: "pass", Env: "WF_TEST_DEFINITELY_UNSET"},
		{Name: "token", Env: "WF_TEST_ALSO_UNSET"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pass (env WF_TEST_DEFINITELY_UNSET)")
	assert.Contains(t, err.Error(), "token (env WF_TEST_ALSO_UNSET)")
	assert.NotContains(t, err.Error(), "WF_TEST_USER")
}

func TestMasker(t *testing.T) {
	t.Setenv("WF_TEST_PASS", "hunter2secret")
	store, err := Resolve([]*config.Secret{{Name: "pass", Env: "WF_TEST_PASS"}})
	require.NoError(t, err)

	m := NewMasker(store)
	assert.Equal(t,
		"twine upload -u bob -p *** dist/*",
		m.Mask("twine upload -u bob -p hunter2secret dist/*"))
	assert.Equal(t, "no secrets here", m.Mask("no secrets here"))
	assert.Equal(t,
		[]string{"a", "***"},
		m.MaskAll([]string{"a", "hunter2secret"}))
}

func TestMaskerEmptyStore(t *testing.T) {
	m := NewMasker(Empty())
	assert.Equal(t, "anything", m.Mask("anything"))
}

func TestMaskingWriter(t *testing.T) {
	t.Setenv("WF_TEST_PASS", "hunter2secret")
	store, err := Resolve([]*config.Secret{{Name: "pass", Env: "WF_TEST_PASS"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	w := &MaskingWriter{W: &buf, Masker: NewMasker(store)}

	n, err := w.Write([]byte("password is hunter2secret\n"))
	require.NoError(t, err)
	// Reports the original length to the caller.
	assert.Equal(t, len("password is hunter2secret\n"), n)
	assert.Equal(t, "password is ***\n", buf.String())
}

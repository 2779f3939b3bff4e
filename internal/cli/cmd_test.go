package cli

import (
	"bytes"
	"errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/alexanderramin/sectors/internal/api"
	"github.com/alexanderramin/sectors/internal/db"
	"github.com/alexanderramin/sectors/internal/domain"
	"github.com/alexanderramin/sectors/internal/form"
	"github.com/alexanderramin/sectors/internal/session"
	"github.com/alexanderramin/sectors/internal/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires an App against a fake backend, keeping the session in an
// in-memory cookie database.
func testApp(t *testing.T, backend *testutil.Backend) *App {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	logger, _ := test.NewNullLogger()
	jar := session.NewJar(database, logger)
	return &App{
		Client:   api.NewHTTPClient(api.Config{BaseURL: backend.URL()}, jar, api.NewLogObserver(logger)),
		Sessions: jar,
		Log:      logger,
		Policy:   form.PolicyDiscard,
	}
}

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func runCmd(app *App, args ...string) (string, error) {
	root := NewRootCmd(app, nil)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return stripANSI(buf.String()), err
}

func TestTreeCmd(t *testing.T) {
	app := testApp(t, testutil.NewBackend(t, testutil.DefaultSectors()))

	out, err := runCmd(app, "tree")
	require.NoError(t, err)
	assert.Contains(t, out, "SECTORS")
	assert.Contains(t, out, "Manufacturing")
	assert.Contains(t, out, "└─ Bakery & confectionery products")
	assert.Contains(t, out, "5 sectors")
}

func TestTreeCmd_Flat(t *testing.T) {
	app := testApp(t, testutil.NewBackend(t, testutil.DefaultSectors()))

	out, err := runCmd(app, "tree", "--flat")
	require.NoError(t, err)
	assert.Equal(t, "1\t0\tManufacturing\n"+
		"19\t1\tConstruction materials\n"+
		"6\t1\tFood and Beverage\n"+
		"342\t2\tBakery & confectionery products\n"+
		"2\t0\tService\n", out)
}

func TestTreeCmd_SectorFailure(t *testing.T) {
	backend := testutil.NewBackend(t, testutil.DefaultSectors())
	backend.SectorsStatus = http.StatusServiceUnavailable
	app := testApp(t, backend)

	_, err := runCmd(app, "tree")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to load sectors")
}

func TestSaveAndShow(t *testing.T) {
	app := testApp(t, testutil.NewBackend(t, testutil.DefaultSectors()))

	out, err := runCmd(app, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved selection")

	out, err = runCmd(app, "save", "--name", "John", "--sector", "1", "--sector", "19", "--agree")
	require.NoError(t, err)
	assert.Contains(t, out, form.MsgSaved)
	assert.Contains(t, out, "2 sectors selected")

	out, err = runCmd(app, "save", "--name", "Johnny")
	require.NoError(t, err)
	assert.Contains(t, out, form.MsgUpdated)

	out, err = runCmd(app, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Johnny")
	assert.Contains(t, out, "Construction materials")
	assert.Contains(t, out, "[x]")
}

func TestSaveCmd_ValidationFailure(t *testing.T) {
	app := testApp(t, testutil.NewBackend(t, testutil.DefaultSectors()))

	out, err := runCmd(app, "save", "--name", "  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotSaved))
	assert.Contains(t, out, "Validation failed")
	assert.Contains(t, out, "name: Name is required")
	assert.Contains(t, out, "sectorIds: At least one sector must be selected")
	assert.Contains(t, out, "agreeToTerms: You must agree to the terms")
	assert.Less(t, bytes.Index([]byte(out), []byte("name:")), bytes.Index([]byte(out), []byte("sectorIds:")))
}

func TestSaveCmd_UnknownSector(t *testing.T) {
	app := testApp(t, testutil.NewBackend(t, testutil.DefaultSectors()))

	_, err := runCmd(app, "save", "--name", "John", "--sector", "999", "--agree")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotSaved))
	assert.Contains(t, err.Error(), "One or more sector IDs are invalid.")
}

func TestLogoutStartsFreshSession(t *testing.T) {
	app := testApp(t, testutil.NewBackend(t, testutil.DefaultSectors()))

	_, err := runCmd(app, "save", "--name", "John", "--sector", "2", "--agree")
	require.NoError(t, err)

	out, err := runCmd(app, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Session cleared (1 cookie removed)")

	out, err = runCmd(app, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved selection")

	out, err = runCmd(app, "save", "--name", "Jane", "--sector", "2", "--agree")
	require.NoError(t, err)
	assert.Contains(t, out, form.MsgSaved, "a fresh session creates again")
}

func TestRootCmd_NeedsTerminal(t *testing.T) {
	app := testApp(t, testutil.NewBackend(t, testutil.DefaultSectors()))
	app.IsInteractive = func() bool { return false }

	_, err := runCmd(app)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestRootCmd_BootstrapRunsFirst(t *testing.T) {
	var seen string
	app := &App{
		Client: newFakeClient(),
		Bootstrap: func(fs *pflag.FlagSet) error {
			v, err := fs.GetString("server")
			seen = v
			return err
		},
	}
	root := NewRootCmd(app, func(fs *pflag.FlagSet) {
		fs.String("server", "", "")
	})
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"tree", "--server", "http://example.test", "--flat"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "http://example.test", seen)
	assert.Contains(t, buf.String(), "Manufacturing")
}

func TestApplyValues(t *testing.T) {
	ctrl := form.NewController(form.PolicyDiscard)
	ctrl.ApplySaved(&domain.SavedSelection{Name: "John", SectorIDs: []int64{1, 19}, AgreeToTerms: true})

	applyValues(ctrl, saveValues{Name: "John", SectorIDs: []int64{19, 2}, Agree: false})

	st := ctrl.State()
	assert.Equal(t, "John", st.Name)
	assert.Equal(t, []int64{2, 19}, st.Selected.IDs())
	assert.False(t, st.AgreeToTerms)
}

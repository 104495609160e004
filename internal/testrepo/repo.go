package testrepo

import (
	"io/ioutil"
	"os"
	"testing"

	"gopkg.in/src-d/go-git.v4"

	"github.com/babystarcloud/bundletool/internal/testlib"
)

// TestRepo is a git repository in a temporary directory that is removed once the test completes.
type TestRepo struct {
	t    *testing.T
	r    *git.Repository
	path string
}

// CreateTestRepo initialises an empty repository and applies the actions in order.
func CreateTestRepo(t *testing.T, actions []RepoAction) *TestRepo {
	td, err := ioutil.TempDir("", "bundletool-test-repository")
	testlib.NoError(t, true, err)
	t.Cleanup(func() { testlib.NoError(t, false, os.RemoveAll(td)) })

	r, err := git.PlainInit(td, false)
	testlib.NoError(t, true, err)

	repo := &TestRepo{
		t:    t,
		r:    r,
		path: td,
	}
	for i := range actions {
		actions[i](repo)
	}
	return repo
}

// Path is the root of the repository's working tree.
func (r *TestRepo) Path() string {
	return r.path
}

func (r *TestRepo) Repository() *git.Repository {
	return r.r
}

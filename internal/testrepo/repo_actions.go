package testrepo

import (
	"os"

	"github.com/rogpeppe/go-internal/txtar"
	"gopkg.in/src-d/go-git.v4"
	gitconfig "gopkg.in/src-d/go-git.v4/config"
	"gopkg.in/src-d/go-git.v4/plumbing/object"

	"github.com/babystarcloud/bundletool/internal/testlib"
)

type RepoAction func(*TestRepo)

type RepoFile struct {
	Path    string
	Content []byte
	Mode    os.FileMode
}

const (
	TestAuthor = "bundletool-tester"
	TestEmail  = "test@bundletool.dev"
)

func AddFile(file RepoFile) RepoAction {
	return func(r *TestRepo) {
		tree, err := r.r.Worktree()
		testlib.NoError(r.t, true, err)

		m := file.Mode
		if m == 0 {
			m = 0644
		}

		fd, err := tree.Filesystem.OpenFile(file.Path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, m)
		testlib.NoError(r.t, true, err)

		_, err = fd.Write(file.Content)
		testlib.NoError(r.t, true, err)
		testlib.NoError(r.t, true, fd.Close())

		_, err = tree.Add(file.Path)
		testlib.NoError(r.t, true, err)
	}
}

// AddArchive adds every file of the archive to the working tree and the index.
func AddArchive(a *txtar.Archive) RepoAction {
	return func(r *TestRepo) {
		for _, f := range a.Files {
			AddFile(RepoFile{Path: f.Name, Content: f.Data})(r)
		}
	}
}

func Commit(message string) RepoAction {
	return func(r *TestRepo) {
		tree, err := r.r.Worktree()
		testlib.NoError(r.t, true, err)

		_, err = tree.Commit(message, &git.CommitOptions{
			Author: &object.Signature{
				Name:  TestAuthor,
				Email: TestEmail,
			},
		})
		testlib.NoError(r.t, true, err)
	}
}

// Remote registers a remote with the given fetch URLs.
func Remote(name string, urls ...string) RepoAction {
	return func(r *TestRepo) {
		_, err := r.r.CreateRemote(&gitconfig.RemoteConfig{
			Name: name,
			URLs: urls,
		})
		testlib.NoError(r.t, true, err)
	}
}

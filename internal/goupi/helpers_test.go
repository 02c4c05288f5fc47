package goupi_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"goupi/internal/goupi"
	"goupi/internal/siteconfig"
	"goupi/internal/testutil"
)

const (
	testSource  = "/site/source"
	testOutput  = "/site/output"
	testPrelude = "<title><GoupiSite/></title><GoupiContent/><GoupiTitle/>"
)

// testSite is an in-memory source tree with the collaborators needed to
// build it.
type testSite struct {
	t         *testing.T
	fs        *testutil.MockFilesystemManager
	clock     *testutil.StubClock
	logger    *testutil.RecordingLogger
	converter *testutil.StubConverter
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	s := &testSite{
		t:         t,
		fs:        testutil.NewMockFilesystemManager(),
		clock:     testutil.FixedClock(),
		logger:    testutil.NewRecordingLogger(),
		converter: testutil.NewStubConverter(),
	}
	s.fs.AddFile(filepath.Join(testSource, goupi.SiteConfigFile), []byte(`Site = "My Blog"`))
	s.fs.AddFile(filepath.Join(testSource, goupi.PreludeFile), []byte(testPrelude))
	s.fs.AddDirectory(filepath.Join(testSource, goupi.PostsDir))
	return s
}

func (s *testSite) postDir(name string) string {
	return filepath.Join(testSource, goupi.PostsDir, name)
}

// addPost writes a post with the given title and content.
func (s *testSite) addPost(name, title, content string) {
	s.addRawPost(name, fmt.Sprintf("Title = %q\nDescription = \"about %s\"\n", title, name), content)
}

func (s *testSite) addRawPost(name, postToml, content string) {
	dir := s.postDir(name)
	s.fs.AddFile(filepath.Join(dir, goupi.PostConfigFile), []byte(postToml))
	s.fs.AddFile(filepath.Join(dir, goupi.ContentFile), []byte(content))
}

func (s *testSite) service(opts goupi.BuildOptions) *goupi.SiteService {
	return goupi.NewSiteService(s.fs, siteconfig.NewParser(), s.converter, s.logger, s.clock, opts)
}

func (s *testSite) output(rel string) string {
	s.t.Helper()
	data, ok := s.fs.Content(filepath.Join(testOutput, rel))
	if !ok {
		s.t.Fatalf("output %s not written", rel)
	}
	return string(data)
}

func (s *testSite) siteConfig() goupi.Configuration {
	return goupi.Configuration{"Site": goupi.String("My Blog")}
}

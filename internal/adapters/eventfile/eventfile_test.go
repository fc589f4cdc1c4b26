package eventfile_test

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/llpbakery/effmap/internal/adapters/eventfile"
	. "github.com/smartystreets/goconvey/convey"
)

var labels = []string{"trigger", "trigger_err", "c000", "c000_err"}

const sample = `<LesHouchesEvents version="1.0">
<init>
 2212 2212
</init>
<event>
 2 -1 1.0 91.2 0.0078 0.118
 # weight line

 1000015  10.0  20.0  30.0  1050.0  1000.0  0.8 +- 0.01  0.5 +- 0.02
-1000015 -10.0 -20.0 -30.0  1050.0  1000.0  0.7 +- 0.01  0.4 +- 0.02
</event>
<event>
 1 -1 1.0 91.2 0.0078 0.118
 # weight line
 1000015  0.0  0.0  300.0  1044.0  1000.0  0.6  0.01  0.3  0.02
</event>
</LesHouchesEvents>
`

func writeArchive(t *testing.T, path string, members map[string]string, order []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, name := range order {
		body := members[name]
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDecode(t *testing.T) {
	Convey("Given a sample with two event blocks", t, func() {
		events, err := eventfile.Decode(strings.NewReader(sample), labels)

		Convey("Then header lines are skipped and particles parsed", func() {
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 2)
			So(events[0], ShouldHaveLength, 2)
			So(events[1], ShouldHaveLength, 1)
		})

		Convey("Then the error marker is dropped before mapping labels", func() {
			p := events[0][1]
			So(p.PDG, ShouldEqual, -1000015)
			So(p.Mass, ShouldEqual, 1000)
			So(p.Effs["trigger"], ShouldEqual, 0.7)
			So(p.Effs["c000_err"], ShouldEqual, 0.02)
		})

		Convey("Then the four-momentum is kept", func() {
			p := events[1][0]
			So(p.Mom.Pz(), ShouldEqual, 300)
			So(p.Mom.E(), ShouldEqual, 1044)
		})
	})

	Convey("Given a record with too few values", t, func() {
		in := "<event>\nh1\nh2\n1000015 1 2 3 4 5 0.8 0.01\n</event>\n"
		_, err := eventfile.Decode(strings.NewReader(in), labels)
		So(errors.Is(err, eventfile.ErrMalformedRecord), ShouldBeTrue)
	})

	Convey("Given a record with a non-numeric value", t, func() {
		in := "<event>\nh1\nh2\n1000015 1 2 3 4 x 0.8 0.01 0.5 0.02\n</event>\n"
		_, err := eventfile.Decode(strings.NewReader(in), labels)
		So(errors.Is(err, eventfile.ErrMalformedRecord), ShouldBeTrue)
	})

	Convey("Given a block that never closes", t, func() {
		in := "<event>\nh1\nh2\n1000015 1 2 3 4 5 0.8 0.01 0.5 0.02\n"
		_, err := eventfile.Decode(strings.NewReader(in), labels)
		So(errors.Is(err, eventfile.ErrUnterminated), ShouldBeTrue)
	})

	Convey("Given no labels", t, func() {
		_, err := eventfile.Decode(strings.NewReader(sample), nil)
		So(errors.Is(err, eventfile.ErrNoLabels), ShouldBeTrue)
	})
}

func TestRead(t *testing.T) {
	Convey("Given samples on disk", t, func() {
		dir := t.TempDir()

		Convey("When the sample is plain text", func() {
			path := filepath.Join(dir, "m1000.lhe")
			So(os.WriteFile(path, []byte(sample), 0o644), ShouldBeNil)
			events, err := eventfile.Read(path, labels)
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 2)
		})

		Convey("When the sample is archived under its own name", func() {
			path := filepath.Join(dir, "m1000.lhe.tar.gz")
			writeArchive(t, path, map[string]string{"README": "not events", "m1000.lhe": sample}, []string{"README", "m1000.lhe"})
			events, err := eventfile.Read(path, labels)
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 2)
		})

		Convey("When the archive member has another name", func() {
			path := filepath.Join(dir, "renamed.tar.gz")
			writeArchive(t, path, map[string]string{"events.lhe": sample}, []string{"events.lhe"})
			events, err := eventfile.Read(path, labels)

			Convey("Then the first regular file is used", func() {
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 2)
			})
		})

		Convey("When the archive is empty", func() {
			path := filepath.Join(dir, "empty.tar.gz")
			writeArchive(t, path, nil, nil)
			_, err := eventfile.Read(path, labels)
			So(errors.Is(err, eventfile.ErrEmptyArchive), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := eventfile.Read(filepath.Join(dir, "missing.lhe"), labels)
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}

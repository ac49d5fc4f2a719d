package certpdf

import (
	"archive/zip"
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/pkg/errors"
)

var (
	unsafeName = regexp.MustCompile(`[^A-Za-z0-9]+`)
	unsafeID   = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// FileName is the download name of a single certificate: "<certId>.pdf" with
// path separators replaced.
func FileName(cert models.Certificate) string {
	return safeID(cert.ID) + ".pdf"
}

// EntryName returns "<safeStudentName>_<courseId>_<certId>.pdf".
func EntryName(cert models.Certificate) string {
	name := strings.Trim(unsafeName.ReplaceAllString(cert.StudentName, "_"), "_")
	if name == "" {
		name = "student"
	}
	return name + "_" + safeID(cert.CourseID) + "_" + safeID(cert.ID) + ".pdf"
}

func safeID(id string) string {
	return strings.Trim(unsafeID.ReplaceAllString(id, "-"), "-")
}

// WriteZIP renders certs one at a time into a ZIP archive written to w.
// progress, if set, is called after each certificate. The first render
// failure or context cancellation aborts the archive.
func (r *Renderer) WriteZIP(ctx context.Context, w io.Writer, certs []models.Certificate, progress func(done, total int)) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]int, len(certs))

	for i, cert := range certs {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "export cancelled")
		}

		name := EntryName(cert)
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = strings.TrimSuffix(name, ".pdf") + "_" + strconv.Itoa(n+1) + ".pdf"
		}
		seen[name]++

		entry, err := zw.Create(name)
		if err != nil {
			return errors.Wrapf(err, "zip entry %s", name)
		}
		if err = r.Render(entry, cert); err != nil {
			return err
		}
		if progress != nil {
			progress(i+1, len(certs))
		}
	}
	return errors.Wrap(zw.Close(), "close zip")
}

// Package bundle assembles the per-sample upload package the QCI ingestion
// API requires: the vendor-mandated variant files plus one metadata XML
// document, packed into a single ZIP archive. File selection is a strict
// allow-list; anything outside the required set never reaches the archive.
package bundle

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	log "github.com/sirupsen/logrus"
)

// RequiredFiles returns the variant file names the QCI upload requires for a
// sample. The annotated-variants JSON produced alongside these is deliberately
// not part of the upload set.
func RequiredFiles(sampleName string) []string {
	return []string{
		sampleName + "_CombinedVariantOutput.tsv",
		sampleName + "_CopyNumberVariants.vcf",
		sampleName + "_MergedSmallVariants.genome.vcf",
		sampleName + "_TMB_Trace.tsv",
	}
}

// Bundle is the result of a successful build.
type Bundle struct {
	// SampleName the bundle was built for.
	SampleName string
	// Files are the variant file names included in the archive.
	Files []string
	// MetadataXML is the marshalled metadata document, also present in the archive.
	MetadataXML []byte
	// ZipPath is the path of the ready-to-upload archive.
	ZipPath string
}

// Builder packs one sample folder into an upload bundle.
type Builder struct {
	sampleName string
	samplePath string
	outputDir  string
}

// NewBuilder creates a Builder for a sample. samplePath may be a directory of
// variant files or a ZIP archive of one.
func NewBuilder(sampleName, samplePath, outputDir string) *Builder {
	return &Builder{
		sampleName: sampleName,
		samplePath: samplePath,
		outputDir:  outputDir,
	}
}

// Build filters the sample folder to the required variant files, constructs
// the metadata XML, and writes <outputDir>/<sampleName>.zip containing the
// selected files plus the XML at the archive root. Missing required files are
// an *IncompleteSampleError; an unusable sample path is an *InputError.
func (b *Builder) Build() (*Bundle, error) {
	source, err := b.openSource()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = source.Close()
	}()

	required := RequiredFiles(b.sampleName)
	available := source.Names()
	var missing []string
	for _, name := range required {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &IncompleteSampleError{SampleName: b.sampleName, Missing: missing}
	}

	metadata, err := NewMetadata(b.sampleName, required)
	if err != nil {
		return nil, err
	}
	metadataXML, err := metadata.Marshal()
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(b.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	zipPath := filepath.Join(b.outputDir, b.sampleName+".zip")
	if err = b.writeArchive(zipPath, source, required, metadataXML); err != nil {
		return nil, err
	}

	log.Infof("Bundled %d variant files for sample %s into %s", len(required), b.sampleName, zipPath)
	return &Bundle{
		SampleName:  b.sampleName,
		Files:       required,
		MetadataXML: metadataXML,
		ZipPath:     zipPath,
	}, nil
}

// writeArchive creates the output ZIP with every selected file plus the
// metadata XML. Members that are already compressed are stored rather than
// deflated again.
func (b *Builder) writeArchive(zipPath string, source sampleSource, names []string, metadataXML []byte) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", zipPath, err)
	}
	zw := zip.NewWriter(out)

	for _, name := range names {
		if err = b.addMember(zw, source, name); err != nil {
			_ = zw.Close()
			_ = out.Close()
			return err
		}
	}

	xmlEntry, err := zw.CreateHeader(&zip.FileHeader{
		Name:   b.sampleName + ".xml",
		Method: zip.Deflate,
	})
	if err != nil {
		_ = zw.Close()
		_ = out.Close()
		return fmt.Errorf("failed to add metadata XML to archive: %w", err)
	}
	if _, err = xmlEntry.Write(metadataXML); err != nil {
		_ = zw.Close()
		_ = out.Close()
		return fmt.Errorf("failed to write metadata XML: %w", err)
	}

	if err = zw.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to finalise archive: %w", err)
	}
	return out.Close()
}

func (b *Builder) addMember(zw *zip.Writer, source sampleSource, name string) error {
	method := uint16(zip.Deflate)
	if strings.HasSuffix(name, ".gz") || strings.HasSuffix(name, ".zip") {
		method = zip.Store
	}
	entry, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", name, err)
	}
	reader, err := source.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() {
		_ = reader.Close()
	}()
	if _, err = io.Copy(entry, reader); err != nil {
		return fmt.Errorf("failed to copy %s into archive: %w", name, err)
	}
	return nil
}

// sampleSource abstracts over the two accepted sample inputs: a plain
// directory and a ZIP archive.
type sampleSource interface {
	// Names maps each available file name to its presence. File names are
	// flattened to their base name so a wrapping sample directory inside an
	// archive does not hide its contents.
	Names() map[string]struct{}
	Open(name string) (io.ReadCloser, error)
	Close() error
}

func (b *Builder) openSource() (sampleSource, error) {
	info, err := os.Stat(b.samplePath)
	if err != nil {
		return nil, &InputError{Path: b.samplePath, Message: "path does not exist"}
	}
	if info.IsDir() {
		return newDirSource(b.samplePath)
	}
	if strings.EqualFold(filepath.Ext(b.samplePath), ".zip") {
		return newZipSource(b.samplePath)
	}
	return nil, &InputError{Path: b.samplePath, Message: "not a directory or ZIP archive"}
}

type dirSource struct {
	dir   string
	names map[string]struct{}
}

func newDirSource(dir string) (*dirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &InputError{Path: dir, Message: fmt.Sprintf("failed to read directory: %v", err)}
	}
	names := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names[entry.Name()] = struct{}{}
	}
	return &dirSource{dir: dir, names: names}, nil
}

func (s *dirSource) Names() map[string]struct{} { return s.names }

func (s *dirSource) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.dir, name))
}

func (s *dirSource) Close() error { return nil }

type zipSource struct {
	rc      *zip.ReadCloser
	members map[string]*zip.File
}

func newZipSource(archivePath string) (*zipSource, error) {
	rc, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &InputError{Path: archivePath, Message: fmt.Sprintf("not a valid ZIP archive: %v", err)}
	}
	members := make(map[string]*zip.File, len(rc.File))
	for _, member := range rc.File {
		if member.FileInfo().IsDir() {
			continue
		}
		members[path.Base(member.Name)] = member
	}
	return &zipSource{rc: rc, members: members}, nil
}

func (s *zipSource) Names() map[string]struct{} {
	names := make(map[string]struct{}, len(s.members))
	for name := range s.members {
		names[name] = struct{}{}
	}
	return names
}

func (s *zipSource) Open(name string) (io.ReadCloser, error) {
	member, ok := s.members[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return member.Open()
}

func (s *zipSource) Close() error { return s.rc.Close() }

package bundle

import (
	"encoding/xml"
	"fmt"
	"sort"
)

// InterpretNamespace is the XML namespace of the QCI sample upload schema.
// The schema itself is a vendor contract; the element set below mirrors the
// current sample-upload document shape and must track the vendor's published
// schema, not the other way round.
const InterpretNamespace = "http://qci.qiagen.com/xsd/interpret"

// Metadata is the sample upload metadata document. Fields are declared in
// schema sequence order (alphabetical, as the QCI API expects), which makes
// the marshalled output deterministic by construction.
type Metadata struct {
	XMLName   xml.Name `xml:"Interpret"`
	Namespace string   `xml:"xmlns,attr"`
	Sample    Sample   `xml:"Sample"`
}

// Sample describes the uploaded sample. Name and SubjectId both carry the
// sample name.
type Sample struct {
	Name              string            `xml:"Name"`
	SubjectID         string            `xml:"SubjectId"`
	VariantsFilenames VariantsFilenames `xml:"VariantsFilenames"`
}

// VariantsFilenames lists every variant file included in the upload ZIP, one
// VariantsFilename element per file.
type VariantsFilenames struct {
	Filenames []string `xml:"VariantsFilename"`
}

// NewMetadata builds the metadata document for a sample and its variant file
// names. Required fields are rejected here, at construction time, rather than
// surfacing as a schema failure at upload time.
func NewMetadata(sampleName string, filenames []string) (*Metadata, error) {
	if sampleName == "" {
		return nil, fmt.Errorf("metadata requires a sample name")
	}
	if len(filenames) == 0 {
		return nil, fmt.Errorf("metadata requires at least one variants filename")
	}

	sorted := make([]string, len(filenames))
	copy(sorted, filenames)
	sort.Strings(sorted)

	return &Metadata{
		Namespace: InterpretNamespace,
		Sample: Sample{
			Name:              sampleName,
			SubjectID:         sampleName,
			VariantsFilenames: VariantsFilenames{Filenames: sorted},
		},
	}, nil
}

// Marshal renders the document with the standard XML header. Identical inputs
// produce byte-identical output.
func (m *Metadata) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata XML: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

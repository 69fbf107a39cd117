package xmlstream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// byteReader returns one byte per Read call, forcing token matches to span
// read boundaries.
type byteReader struct {
	data string
	pos  int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.pos]
	r.pos++
	return 1, nil
}

func TestExtractDeliversFragmentsInOrder(t *testing.T) {
	doc := `<?xml version="1.0"?>
<Funds>
  <Fund><FundCode>BUP</FundCode></Fund>
  <Fund><FundCode>MPL</FundCode></Fund>
  <Fund><FundCode>NIB</FundCode></Fund>
</Funds>`

	var got []string
	count, err := Extract(strings.NewReader(doc), "Fund", func(raw []byte) error {
		got = append(got, string(raw))
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 fragments, got %d", count)
	}
	if got[0] != "<Fund><FundCode>BUP</FundCode></Fund>" {
		t.Fatalf("unexpected first fragment: %q", got[0])
	}
	if !strings.Contains(got[2], "NIB") {
		t.Fatalf("fragments out of order: %q", got[2])
	}
}

func TestExtractTagBoundary(t *testing.T) {
	// <FundCode> must not open a <Fund> fragment.
	doc := `<FundCode>XXX</FundCode><Fund><FundCode>BUP</FundCode></Fund>`
	var got []string
	_, err := Extract(strings.NewReader(doc), "Fund", func(raw []byte) error {
		got = append(got, string(raw))
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 fragment, got %d: %v", len(got), got)
	}
	if got[0] != "<Fund><FundCode>BUP</FundCode></Fund>" {
		t.Fatalf("unexpected fragment: %q", got[0])
	}
}

func TestExtractTokensSplitAcrossReads(t *testing.T) {
	doc := `<Products><Product ProductCode="I2/AZAA1D"><Name>Basic</Name></Product></Products>`
	var got string
	count, err := Extract(&byteReader{data: doc}, "Product", func(raw []byte) error {
		got = string(raw)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 fragment, got %d", count)
	}
	if !strings.HasPrefix(got, `<Product ProductCode="I2/AZAA1D">`) {
		t.Fatalf("attributes lost: %q", got)
	}
}

func TestExtractTruncatedStream(t *testing.T) {
	doc := `<Funds><Fund><FundCode>BUP</FundCode></Fund><Fund><FundCode>MP`
	count, err := Extract(strings.NewReader(doc), "Fund", func(raw []byte) error {
		return nil
	})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 complete fragment before truncation, got %d", count)
	}
}

func TestExtractReplacementCharacterPassedThrough(t *testing.T) {
	doc := "<Funds><Fund><FundName>Bu�pa</FundName></Fund></Funds>"
	var got string
	_, err := Extract(strings.NewReader(doc), "Fund", func(raw []byte) error {
		got = string(raw)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "�") {
		t.Fatal("expected replacement character delivered verbatim")
	}
}

func TestExtractCallbackErrorAbortsScan(t *testing.T) {
	doc := `<Fund><A>1</A></Fund><Fund><B>2</B></Fund>`
	wantErr := errors.New("boom")
	count, err := Extract(strings.NewReader(doc), "Fund", func(raw []byte) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if count != 1 {
		t.Fatalf("expected scan to stop after first fragment, got %d", count)
	}
}

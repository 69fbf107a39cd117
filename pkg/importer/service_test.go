package importer

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeTestArchive(t *testing.T, members map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.zip")
	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	writer := zip.NewWriter(out)
	for name, content := range members {
		member, err := writer.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := member.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSelectFiles(t *testing.T) {
	path := writeTestArchive(t, map[string]string{
		"Funds 20260801.xml":              "<FundsList/>",
		"Combined Open 20260801.xml":      "<ProductList/>",
		"GeneralHealth Open 20260801.xml": "<ProductList/>",
		"Hospital Open 20260801.xml":      "<ProductList/>",
		"README.txt":                      "ignore me",
	})
	archive, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer archive.Close()

	fundFile, productFiles := selectFiles(archive)
	if fundFile != "Funds 20260801.xml" {
		t.Fatalf("fund file = %q", fundFile)
	}
	if len(productFiles) != 3 {
		t.Fatalf("expected 3 product files, got %v", productFiles)
	}
	for _, name := range productFiles {
		if name == "README.txt" {
			t.Fatal("unrelated member selected")
		}
	}
}

func TestSelectFilesMissingFundFile(t *testing.T) {
	path := writeTestArchive(t, map[string]string{
		"Hospital Open 20260801.xml": "<ProductList/>",
	})
	archive, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer archive.Close()

	fundFile, productFiles := selectFiles(archive)
	if fundFile != "" {
		t.Fatalf("expected no fund file, got %q", fundFile)
	}
	if len(productFiles) != 1 {
		t.Fatalf("expected 1 product file, got %v", productFiles)
	}
}

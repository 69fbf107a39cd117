package xmlstream

import "testing"

const fundFragment = `<Fund>
  <FundCode>BUP</FundCode>
  <FundName>Bupa</FundName>
  <FundType>Open</FundType>
  <RelatedBrandNames>
    <Brand><BrandCode>BUPA</BrandCode><BrandName>Bupa Australia</BrandName></Brand>
    <Brand><BrandCode>HBAB</BrandCode><BrandName>HBA</BrandName></Brand>
  </RelatedBrandNames>
  <FundDependants>
    <DependantLimits>
      <DependantLimit Title="Student" Supported="true" MinAge="21" MaxAge="25"/>
    </DependantLimits>
  </FundDependants>
</Fund>`

func TestParseAndNavigate(t *testing.T) {
	fund, err := Parse([]byte(fundFragment))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if fund.Tag != "Fund" {
		t.Fatalf("expected Fund root, got %s", fund.Tag)
	}
	if got := fund.Find("FundCode").Text(); got != "BUP" {
		t.Fatalf("FundCode = %q", got)
	}
	if got := fund.Find("FundName").Text(); got != "Bupa" {
		t.Fatalf("FundName = %q", got)
	}

	brands := fund.Find("RelatedBrandNames").FindAll("Brand")
	if len(brands) != 2 {
		t.Fatalf("expected 2 brands, got %d", len(brands))
	}
	if got := brands[1].Find("BrandCode").Text(); got != "HBAB" {
		t.Fatalf("second brand = %q, document order not preserved", got)
	}
}

func TestFindMissingReturnsEmptyElement(t *testing.T) {
	fund, err := Parse([]byte(fundFragment))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	// Chained lookups through absent elements must not panic.
	got := fund.Find("Address").Find("Postcode").Text()
	if got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
	if fund.Find("Nope").Attr("x") != "" {
		t.Fatal("expected empty attribute on placeholder")
	}
	if attrs := fund.Find("Nope").Attributes(); attrs == nil || len(attrs) != 0 {
		t.Fatalf("expected empty attribute map, got %v", attrs)
	}
}

func TestAttributes(t *testing.T) {
	fund, err := Parse([]byte(fundFragment))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	limit := fund.Find("FundDependants").Find("DependantLimits").Find("DependantLimit")
	if got := limit.Attr("Title"); got != "Student" {
		t.Fatalf("Title = %q", got)
	}
	if got := limit.Attr("MaxAge"); got != "25" {
		t.Fatalf("MaxAge = %q", got)
	}
	attrs := limit.Attributes()
	if len(attrs) != 4 {
		t.Fatalf("expected 4 attributes, got %d", len(attrs))
	}
}

func TestParseProductCodeAttribute(t *testing.T) {
	product, err := Parse([]byte(`<Product ProductCode="I2/AZAA1D" ProductStatus="Open"><FundCode>BUP</FundCode></Product>`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := product.Attr("ProductCode"); got != "I2/AZAA1D" {
		t.Fatalf("ProductCode = %q", got)
	}
	if got := product.Find("FundCode").Text(); got != "BUP" {
		t.Fatalf("FundCode = %q", got)
	}
}

func TestParseRejectsEmptyInput(t *testing.T) {
	if _, err := Parse([]byte("   ")); err == nil {
		t.Fatal("expected error for empty fragment")
	}
}

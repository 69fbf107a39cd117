package products

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phealth-au/platform/pkg/common/logger"
	"github.com/phealth-au/platform/pkg/xmlstream"
)

// Resolver maps (service type, PHIO service code) to a stored mnemonic.
type Resolver interface {
	Resolve(serviceType, serviceCode string) (string, error)
}

// Store is the persistence surface the loader writes through.
type Store interface {
	FindByCode(ctx context.Context, code string) (*Product, error)
	Upsert(ctx context.Context, product *Product) error
	TouchPresence(ctx context.Context, code string) error
	ServiceIndex(ctx context.Context) (ServiceIndex, error)
}

// Loader normalizes <Product> fragments into product rows. Prepare must be
// called after the reference tables are seeded and before the first
// CreateFromXML call.
type Loader struct {
	repo     Store
	cache    *CacheWriter
	resolver Resolver
}

func NewLoader(repo Store, cache *CacheWriter) *Loader {
	return &Loader{repo: repo, cache: cache}
}

// Prepare loads the service mnemonic index used to encode covered services.
func (l *Loader) Prepare(ctx context.Context) error {
	index, err := l.repo.ServiceIndex(ctx)
	if err != nil {
		return fmt.Errorf("loading service index: %w", err)
	}
	if len(index) == 0 {
		return fmt.Errorf("health service reference table is empty; reference data not seeded")
	}
	l.resolver = index
	return nil
}

// CreateFromXML normalizes one <Product> fragment and persists it. When the
// sanitized fragment is byte-identical to the stored XML and force is off,
// the record is left untouched apart from its presence flag.
func (l *Loader) CreateFromXML(ctx context.Context, raw []byte, runTime time.Time, force bool) (*Product, error) {
	sanitized, dirty := Sanitize(raw)

	elem, err := xmlstream.Parse(sanitized)
	if err != nil {
		return nil, fmt.Errorf("parsing product fragment: %w", err)
	}
	code := elem.Attr("ProductCode")
	fundCode := elem.Find("FundCode").Text()
	if code == "" || fundCode == "" {
		return nil, fmt.Errorf("product fragment missing mandatory identity (code=%q fund=%q)", code, fundCode)
	}
	if dirty {
		logger.Log.WithFields(map[string]interface{}{
			"fund":    fundCode,
			"product": code,
		}).Warn("replacement character detected in product XML, sanitized to '?'")
	}

	existing, err := l.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("looking up product %s: %w", code, err)
	}
	if !force && existing != nil && existing.XML == string(sanitized) {
		// Unchanged since the last run. The presence flag still has to be
		// refreshed or the reconciliation pass would orphan the product.
		if err := l.repo.TouchPresence(ctx, code); err != nil {
			return nil, err
		}
		existing.IsPresent = true
		return existing, nil
	}

	product, err := normalize(elem, string(sanitized), runTime, l.resolver)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.WriteProductXML(fundCode, code, sanitized); err != nil {
			logger.Log.WithError(err).WithField("product", code).Warn("failed to write product XML cache")
		}
	}

	if err := l.repo.Upsert(ctx, product); err != nil {
		return nil, fmt.Errorf("saving product %s: %w", code, err)
	}
	return product, nil
}

// NormalizeProduct maps a <Product> fragment to a product record without
// persisting it.
func NormalizeProduct(raw []byte, runTime time.Time, resolver Resolver) (*Product, error) {
	sanitized, _ := Sanitize(raw)
	elem, err := xmlstream.Parse(sanitized)
	if err != nil {
		return nil, fmt.Errorf("parsing product fragment: %w", err)
	}
	return normalize(elem, string(sanitized), runTime, resolver)
}

// Sanitize replaces every Unicode replacement character with '?'. The PHIO
// feed is known to emit a handful of corrupt records each month.
func Sanitize(raw []byte) ([]byte, bool) {
	if !bytes.Contains(raw, []byte("�")) {
		return raw, false
	}
	return bytes.ReplaceAll(raw, []byte("�"), []byte("?")), true
}

func normalize(elem *xmlstream.Element, sanitizedXML string, runTime time.Time, resolver Resolver) (*Product, error) {
	product := &Product{
		Code:     elem.Attr("ProductCode"),
		FundCode: elem.Find("FundCode").Text(),
		Name:     elem.Find("Name").Text(),
		Type:     elem.Find("ProductType").Text(),
		Status:   elem.Find("ProductStatus").Text(),
		State:    elem.Find("State").Text(),
	}
	if product.Code == "" || product.FundCode == "" || product.Name == "" ||
		product.Type == "" || product.Status == "" || product.State == "" {
		return nil, fmt.Errorf("product %s missing mandatory element (fund=%q name=%q type=%q status=%q state=%q)",
			product.Code, product.FundCode, product.Name, product.Type, product.Status, product.State)
	}

	product.Premium = floatOrZero(elem.Find("PremiumNoRebate").Text())
	product.HospitalComponent = floatOrZero(elem.Find("PremiumHospitalComponent").Text())

	excesses := elem.Find("Excesses")
	product.ExcessPerPerson = intOrZero(excesses.Find("ExcessPerPerson").Text())
	product.ExcessPerAdmission = intOrZero(excesses.Find("ExcessPerAdmission").Text())
	product.ExcessPerPolicy = intOrZero(excesses.Find("ExcessPerPolicy").Text())
	product.Excess = max3(product.ExcessPerPerson, product.ExcessPerAdmission, product.ExcessPerPolicy)

	product.IsCorporate = elem.Find("Corporate").Attr("IsCorporate") == "true"

	var brandCodes []string
	for _, brand := range elem.Find("Brands").Children() {
		if text := brand.Text(); text != "" {
			brandCodes = append(brandCodes, text)
		}
	}
	product.Brands = strings.Join(brandCodes, ";")
	if product.Brands != "" {
		product.FundBrandCode = product.Brands
	} else {
		product.FundBrandCode = product.FundCode
	}

	product.OnlyAvailableWith = "NotApplicable"
	if deps := elem.Find("OnlyAvailableWith").Children(); len(deps) > 0 {
		product.OnlyAvailableWith = deps[0].Tag
		if deps[0].Tag == "Products" {
			var codes []string
			for _, child := range deps[0].Children() {
				codes = append(codes, child.Text())
			}
			if len(codes) > 0 {
				product.OnlyAvailableWithProducts = strings.Join(codes, ";")
			} else {
				product.OnlyAvailableWithProducts = deps[0].Text()
			}
		}
	}

	product.HospitalTier = "None"
	hospitalCover := elem.Find("HospitalCover")
	if product.Type != TypeGeneralHealth {
		if tier := hospitalCover.Find("HospitalTier").Text(); tier != "" {
			product.HospitalTier = tier
		}
		product.AccommodationType = hospitalCover.Find("Accommodation").Text()
	}

	whoIsCovered := elem.Find("WhoIsCovered")
	if whoIsCovered.Attr("OnlyOnePerson") == "true" {
		product.AdultsCovered = 1
	} else {
		coverage := whoIsCovered.Find("Coverage")
		product.AdultsCovered = intOrZero(coverage.Attr("NumberOfAdults"))
		for _, dependant := range coverage.FindAll("DependantCover") {
			covered := dependant.Attr("Covered") == "true"
			switch title := dependant.Attr("Title"); title {
			case "Child":
				product.ChildCover = covered
			case "ConditionalNonStudent":
				product.ConditionalNonStudentCover = covered
			case "Disability":
				product.DisabilityCover = covered
			case "NonClassified":
				product.NonClassifiedCover = covered
			case "NonStudent":
				product.NonStudentCover = covered
			case "Student":
				product.StudentCover = covered
			default:
				logger.Log.WithFields(map[string]interface{}{
					"product": product.Code,
					"title":   title,
				}).Warn("unrecognized dependant coverage title")
			}
		}
	}

	// A per-policy excess is shared between two adult members.
	if product.Excess == product.ExcessPerPolicy && product.AdultsCovered == 2 {
		product.Excess = product.Excess / 2
	}

	product.YoungAdultCover = product.NonClassifiedCover ||
		product.NonStudentCover ||
		product.ConditionalNonStudentCover

	product.DependantCover = product.ChildCover ||
		product.StudentCover ||
		product.YoungAdultCover ||
		product.DisabilityCover

	var services strings.Builder
	medicalServices := hospitalCover.Find("MedicalServices")
	for _, service := range medicalServices.FindAll("MedicalService") {
		cover := service.Attr("Cover")
		if cover == "NotCovered" {
			continue
		}
		key, err := resolver.Resolve("H", service.Attr("Title"))
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", product.Code, err)
		}
		services.WriteString(key)
		if cover == "Restricted" {
			services.WriteString("-")
		}
		services.WriteString(";")
	}
	generalServices := elem.Find("GeneralHealthCover").Find("GeneralHealthServices")
	for _, service := range generalServices.FindAll("GeneralHealthService") {
		if service.Attr("Covered") != "true" {
			continue
		}
		key, err := resolver.Resolve("G", service.Attr("Title"))
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", product.Code, err)
		}
		services.WriteString(key)
		services.WriteString(";")
	}
	product.Services = services.String()

	product.IsPresent = true
	product.XML = sanitizedXML
	product.TimeStamp = runTime

	return product, nil
}

func intOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func floatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func max3(a, b, c int) int {
	result := a
	if b > result {
		result = b
	}
	if c > result {
		result = c
	}
	return result
}

package funds

import (
	"context"
	"fmt"
	"strconv"

	"github.com/phealth-au/platform/pkg/common/logger"
	"github.com/phealth-au/platform/pkg/xmlstream"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// CreateFromXML normalizes one <Fund> fragment and persists it, replacing
// any prior version of the fund and its children.
func (s *Service) CreateFromXML(ctx context.Context, raw []byte) (*Fund, error) {
	fund, err := ParseFund(raw)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Replace(ctx, fund); err != nil {
		return nil, fmt.Errorf("saving fund %s: %w", fund.Code, err)
	}
	logger.Log.WithField("fund", fund.Code).Debug("fund loaded")
	return fund, nil
}

func (s *Service) FindAll(ctx context.Context) ([]Fund, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) FindOne(ctx context.Context, code string) (*Fund, error) {
	return s.repo.FindOne(ctx, code)
}

// ParseFund maps a <Fund> fragment into a Fund record with its brands and
// dependant limits. FundCode, FundName and FundType are mandatory; anything
// else defaults to its zero value when absent.
func ParseFund(raw []byte) (*Fund, error) {
	elem, err := xmlstream.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing fund fragment: %w", err)
	}

	fund := &Fund{
		Code:        elem.Find("FundCode").Text(),
		Name:        elem.Find("FundName").Text(),
		Type:        elem.Find("FundType").Text(),
		Description: elem.Find("FundDescription").Text(),
	}
	if fund.Code == "" || fund.Name == "" || fund.Type == "" {
		return nil, fmt.Errorf("fund fragment missing mandatory element (code=%q name=%q type=%q)",
			fund.Code, fund.Name, fund.Type)
	}

	address := elem.Find("Address")
	fund.Address1 = address.Find("AddressLine1").Text()
	fund.Address2 = address.Find("AddressLine2").Text()
	fund.Address3 = address.Find("AddressLine3").Text()
	fund.Town = address.Find("Town").Text()
	fund.State = address.Find("State").Text()
	fund.Postcode = address.Find("Postcode").Text()

	for _, state := range elem.Find("StatesOfOperation").FindAll("State") {
		switch state.Text() {
		case "ALL":
			fund.StateALL = true
		case "NSW":
			fund.StateNSW = true
		case "VIC":
			fund.StateVIC = true
		case "QLD":
			fund.StateQLD = true
		case "SA":
			fund.StateSA = true
		case "WA":
			fund.StateWA = true
		case "TAS":
			fund.StateTAS = true
		case "NT":
			fund.StateNT = true
		case "ACT":
			fund.StateACT = true
		default:
			logger.Log.WithFields(map[string]interface{}{
				"fund":  fund.Code,
				"state": state.Text(),
			}).Warn("unrecognized state of operation")
		}
	}

	restrictions := elem.Find("FundRestrictions")
	fund.RestrictionHint = restrictions.Find("RestrictionHint").Text()
	fund.RestrictionParagraph = restrictions.Find("RestrictionParagraph").Text()
	fund.RestrictionDetails = restrictions.Find("RestrictionDetails").Text()

	fund.NonClassifiedDependantDescription = elem.Find("NonClassifiedDependantsDescription").Text()

	for _, brand := range elem.Find("RelatedBrandNames").FindAll("Brand") {
		code := brand.Find("BrandCode").Text()
		if code == "" {
			continue
		}
		fund.Brands = append(fund.Brands, Brand{
			Code:     code,
			FundCode: fund.Code,
			Name:     brand.Find("BrandName").Text(),
			Phone:    brand.Find("BrandPhone").Text(),
			Email:    brand.Find("BrandEmail").Text(),
			Website:  brand.Find("BrandWebsite").Text(),
		})
	}

	limits := elem.Find("FundDependants").Find("DependantLimits")
	for _, limit := range limits.FindAll("DependantLimit") {
		title := limit.Attr("Title")
		if title == "" {
			continue
		}
		fund.DependantLimits = append(fund.DependantLimits, DependantLimit{
			FundCode:  fund.Code,
			Type:      title,
			Supported: limit.Attr("Supported") == "true",
			MinAge:    atoiOrZero(limit.Attr("MinAge")),
			MaxAge:    atoiOrZero(limit.Attr("MaxAge")),
		})
	}

	return fund, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

package products

import "time"

// Product statuses. Orphaned is set by the import reconciliation pass when a
// product disappears from the upstream feed.
const (
	StatusOpen     = "Open"
	StatusClosed   = "Closed"
	StatusOrphaned = "Orphaned"
)

// Product types.
const (
	TypeHospital      = "Hospital"
	TypeGeneralHealth = "GeneralHealth"
	TypeCombined      = "Combined"
)

// Product is one health insurance policy from the PHIO dataset. Only fields
// relevant to searching and sorting are broken out into columns; everything
// else stays in the stored product XML.
type Product struct {
	Code     string `gorm:"primaryKey;size:16" json:"code"`
	FundCode string `gorm:"size:3;index" json:"fundCode"`
	Name     string `gorm:"size:64" json:"name"`
	Type     string `gorm:"size:16" json:"type"`
	Status   string `gorm:"size:8" json:"status"`
	State    string `gorm:"size:3;index:idx_products_segment,priority:1" json:"state"`

	AdultsCovered              int  `gorm:"default:0;index:idx_products_segment,priority:2" json:"adultsCovered"`
	ChildCover                 bool `gorm:"default:false;index:idx_products_segment,priority:3" json:"childCover"`
	StudentCover               bool `gorm:"default:false" json:"studentCover"`
	NonClassifiedCover         bool `gorm:"default:false" json:"nonClassifiedCover"`
	NonStudentCover            bool `gorm:"default:false" json:"nonStudentCover"`
	ConditionalNonStudentCover bool `gorm:"default:false" json:"conditionalNonStudentCover"`
	DisabilityCover            bool `gorm:"default:false" json:"disabilityCover"`
	YoungAdultCover            bool `gorm:"default:false" json:"youngAdultCover"`
	DependantCover             bool `gorm:"default:false" json:"dependantCover"`

	Excess             int `gorm:"default:0" json:"excess"`
	ExcessPerAdmission int `gorm:"default:0" json:"excessPerAdmission"`
	ExcessPerPerson    int `gorm:"default:0" json:"excessPerPerson"`
	ExcessPerPolicy    int `gorm:"default:0" json:"excessPerPolicy"`

	Premium           float64 `gorm:"type:decimal(10,2);default:0" json:"premium"`
	HospitalComponent float64 `gorm:"type:decimal(10,2);default:0" json:"hospitalComponent"`

	HospitalTier      string `gorm:"size:16" json:"hospitalTier"`
	AccommodationType string `gorm:"size:64" json:"accommodationType,omitempty"`

	// Services is the encoded covered-service list: 3-char mnemonics
	// separated by ';', each suffixed with '-' when cover is restricted.
	Services string `gorm:"size:512" json:"services"`

	IsCorporate bool `gorm:"default:false" json:"isCorporate"`

	// Brands is the semicolon-joined list of brand codes the product is sold
	// under; FundBrandCode falls back to the fund code when there are none.
	Brands        string `gorm:"size:256" json:"brands,omitempty"`
	FundBrandCode string `gorm:"size:256" json:"fundBrandCode"`

	// OnlyAvailableWith classifies product dependencies: NotApplicable,
	// AnyProduct, or Products (with the specific codes listed).
	OnlyAvailableWith         string `gorm:"size:16" json:"onlyAvailableWith"`
	OnlyAvailableWithProducts string `gorm:"type:text" json:"onlyAvailableWithProducts,omitempty"`

	// IsPresent is cleared before each import run and set as products are
	// (re)written, so the reconciliation pass can orphan dropped records.
	IsPresent bool `gorm:"default:true" json:"-"`

	XML       string    `gorm:"column:xml;type:text" json:"-"`
	TimeStamp time.Time `json:"timeStamp"`
}

func (Product) TableName() string {
	return "products"
}

// HealthService maps a PHIO service code to the 3-character mnemonic stored
// in the product services field, with the minimum hospital tier the service
// is available at.
type HealthService struct {
	Key         string `gorm:"primaryKey;size:3" json:"key"`
	ServiceType string `gorm:"size:1;uniqueIndex:idx_service_type_code,priority:1" json:"serviceType"` // H or G
	ServiceCode string `gorm:"primaryKey;size:64;uniqueIndex:idx_service_type_code,priority:2" json:"serviceCode"`
	MinimumTier string `gorm:"size:16" json:"minimumTier"`
	Description string `gorm:"size:256" json:"description"`
}

func (HealthService) TableName() string {
	return "health_services"
}

// HospitalTier assigns a ranking to each hospital cover tier so products can
// be filtered on "at least tier X".
type HospitalTier struct {
	Tier    string `gorm:"primaryKey;size:16" json:"tier"`
	Ranking int    `json:"ranking"`
}

func (HospitalTier) TableName() string {
	return "hospital_tiers"
}

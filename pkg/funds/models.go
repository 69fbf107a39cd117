package funds

// Fund is one registered health insurance fund from the PHIO dataset. The
// fund, its brands and its dependant limits are replaced as a unit whenever
// the fund reappears in an import run.
type Fund struct {
	Code        string `gorm:"primaryKey;size:3" json:"code"`
	Name        string `gorm:"size:64" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Type        string `gorm:"size:16" json:"type"` // Open or Restricted

	Address1 string `gorm:"size:64" json:"address1"`
	Address2 string `gorm:"size:64" json:"address2,omitempty"`
	Address3 string `gorm:"size:64" json:"address3,omitempty"`
	Town     string `gorm:"size:64" json:"town"`
	State    string `gorm:"size:3" json:"state"`
	Postcode string `gorm:"size:4" json:"postcode"`

	RestrictionHint      string `gorm:"size:256" json:"restrictionHint,omitempty"`
	RestrictionParagraph string `gorm:"type:text" json:"restrictionParagraph,omitempty"`
	RestrictionDetails   string `gorm:"type:text" json:"restrictionDetails,omitempty"`

	// States the fund operates in.
	StateALL bool `gorm:"default:false" json:"stateALL"`
	StateNSW bool `gorm:"default:false" json:"stateNSW"`
	StateVIC bool `gorm:"default:false" json:"stateVIC"`
	StateQLD bool `gorm:"default:false" json:"stateQLD"`
	StateSA  bool `gorm:"default:false" json:"stateSA"`
	StateWA  bool `gorm:"default:false" json:"stateWA"`
	StateTAS bool `gorm:"default:false" json:"stateTAS"`
	StateNT  bool `gorm:"default:false" json:"stateNT"`
	StateACT bool `gorm:"default:false" json:"stateACT"`

	NonClassifiedDependantDescription string `gorm:"size:512" json:"nonClassifiedDependantDescription"`

	Brands          []Brand          `gorm:"foreignKey:FundCode;references:Code;constraint:OnDelete:CASCADE" json:"brands,omitempty"`
	DependantLimits []DependantLimit `gorm:"foreignKey:FundCode;references:Code;constraint:OnDelete:CASCADE" json:"dependantLimits,omitempty"`
}

func (Fund) TableName() string {
	return "funds"
}

// Brand is a trading name a fund sells products under.
type Brand struct {
	Code     string `gorm:"primaryKey;size:5" json:"code"`
	FundCode string `gorm:"size:3;index" json:"fundCode"`
	Name     string `gorm:"size:64" json:"name"`
	Phone    string `gorm:"size:2048" json:"phone,omitempty"`
	Email    string `gorm:"size:64" json:"email,omitempty"`
	Website  string `gorm:"size:64" json:"website,omitempty"`
}

func (Brand) TableName() string {
	return "brands"
}

// DependantLimit records whether a fund supports a dependant class and the
// age bounds that apply.
type DependantLimit struct {
	FundCode  string `gorm:"primaryKey;size:3" json:"fundCode"`
	Type      string `gorm:"primaryKey;size:32" json:"type"`
	Supported bool   `gorm:"default:false" json:"supported"`
	MinAge    int    `gorm:"default:0" json:"minAge"`
	MaxAge    int    `gorm:"default:0" json:"maxAge"`
}

func (DependantLimit) TableName() string {
	return "dependant_limits"
}

package products

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultHospitalTiers returns the ranked cover tiers. "None" is the rank-0
// sentinel used by general-health products.
func DefaultHospitalTiers() []HospitalTier {
	return []HospitalTier{
		{Tier: "Basic", Ranking: 100},
		{Tier: "BasicPlus", Ranking: 150},
		{Tier: "Bronze", Ranking: 200},
		{Tier: "BronzePlus", Ranking: 250},
		{Tier: "Silver", Ranking: 300},
		{Tier: "SilverPlus", Ranking: 350},
		{Tier: "Gold", Ranking: 400},
		{Tier: "None", Ranking: 0},
	}
}

type serviceDefinition struct {
	Key         string `yaml:"key"`
	Type        string `yaml:"type"`
	Tier        string `yaml:"tier"`
	Code        string `yaml:"code"`
	Description string `yaml:"description"`
}

type serviceCatalog struct {
	Services []serviceDefinition `yaml:"services"`
}

// LoadHealthServices returns the service mnemonic table, read from a YAML
// catalog when path is set and falling back to the built-in definitions.
func LoadHealthServices(path string) ([]HealthService, error) {
	if path == "" {
		return DefaultHealthServices(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultHealthServices(), err
	}
	var catalog serviceCatalog
	if err := yaml.Unmarshal(content, &catalog); err != nil {
		return nil, fmt.Errorf("parsing health service catalog: %w", err)
	}
	if len(catalog.Services) == 0 {
		return nil, fmt.Errorf("health service catalog %s is empty", path)
	}
	services := make([]HealthService, 0, len(catalog.Services))
	for _, def := range catalog.Services {
		tier := def.Tier
		if tier == "" {
			tier = "None"
		}
		services = append(services, HealthService{
			Key:         def.Key,
			ServiceType: def.Type,
			ServiceCode: def.Code,
			MinimumTier: tier,
			Description: def.Description,
		})
	}
	return services, nil
}

// DefaultHealthServices returns the built-in mnemonic map for general (G)
// and hospital (H) services.
func DefaultHealthServices() []HealthService {
	return []HealthService{
		// General services
		{Key: "ACU", ServiceType: "G", MinimumTier: "None", ServiceCode: "Acupuncture"},
		{Key: "ANT", ServiceType: "G", MinimumTier: "None", ServiceCode: "AntenatalPostnatal", Description: "Ante-natal/Post-natal classes"},
		{Key: "AUD", ServiceType: "G", MinimumTier: "None", ServiceCode: "Audiology"},
		{Key: "CHI", ServiceType: "G", MinimumTier: "None", ServiceCode: "ChineseHerbalMedicine"},
		{Key: "CHR", ServiceType: "G", MinimumTier: "None", ServiceCode: "Chiropractic"},
		{Key: "DEG", ServiceType: "G", MinimumTier: "None", ServiceCode: "DentalGeneral", Description: "Dental - General"},
		{Key: "DEM", ServiceType: "G", MinimumTier: "None", ServiceCode: "DentalMajor", Description: "Dental - Major"},
		{Key: "DIE", ServiceType: "G", MinimumTier: "None", ServiceCode: "Dietetics"},
		{Key: "END", ServiceType: "G", MinimumTier: "None", ServiceCode: "Endodontic"},
		{Key: "EXP", ServiceType: "G", MinimumTier: "None", ServiceCode: "ExercisePhysiology"},
		{Key: "GCM", ServiceType: "G", MinimumTier: "None", ServiceCode: "GlucoseMonitor"},
		{Key: "HMA", ServiceType: "G", MinimumTier: "None", ServiceCode: "HealthManagement"},
		{Key: "HEA", ServiceType: "G", MinimumTier: "None", ServiceCode: "HearingAids"},
		{Key: "HNN", ServiceType: "G", MinimumTier: "None", ServiceCode: "HomeNursing"},
		{Key: "NPB", ServiceType: "G", MinimumTier: "None", ServiceCode: "NonPBS", Description: "Non PBS pharmaceuticals"},
		{Key: "OCT", ServiceType: "G", MinimumTier: "None", ServiceCode: "OccupationalTherapy"},
		{Key: "OPT", ServiceType: "G", MinimumTier: "None", ServiceCode: "Optical"},
		{Key: "ORD", ServiceType: "G", MinimumTier: "None", ServiceCode: "Orthodontic"},
		{Key: "OOP", ServiceType: "G", MinimumTier: "None", ServiceCode: "Orthoptics"},
		{Key: "ORT", ServiceType: "G", MinimumTier: "None", ServiceCode: "Orthotics"},
		{Key: "OST", ServiceType: "G", MinimumTier: "None", ServiceCode: "Osteopathy"},
		{Key: "PHY", ServiceType: "G", MinimumTier: "None", ServiceCode: "Physiotherapy"},
		{Key: "POD", ServiceType: "G", MinimumTier: "None", ServiceCode: "Podiatry"},
		{Key: "PSY", ServiceType: "G", MinimumTier: "None", ServiceCode: "Psychology"},
		{Key: "REM", ServiceType: "G", MinimumTier: "None", ServiceCode: "RemedialMassage"},
		{Key: "SPT", ServiceType: "G", MinimumTier: "None", ServiceCode: "SpeechTherapy"},
		{Key: "VAC", ServiceType: "G", MinimumTier: "None", ServiceCode: "Vaccinations"},
		// Hospital services
		{Key: "ASR", ServiceType: "H", MinimumTier: "Gold", ServiceCode: "AssistedReproductive", Description: "Assisted Reproductive Services"},
		{Key: "BNS", ServiceType: "H", MinimumTier: "Silver", ServiceCode: "BackNeckSpine", Description: "Back, Neck & Spine"},
		{Key: "BLO", ServiceType: "H", MinimumTier: "Silver", ServiceCode: "Blood"},
		{Key: "BJM", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "BoneJointMuscle", Description: "Bone, Joint & Muscle"},
		{Key: "BNV", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "BrainNervousSystem", Description: "Brain & Nervous System"},
		{Key: "BSS", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "BreastSurgery", Description: "Breast Surgery (medically necessary)"},
		{Key: "CAT", ServiceType: "H", MinimumTier: "Gold", ServiceCode: "Cataracts"},
		{Key: "CHE", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "ChemotherapyRadiotherapyImmunotherapy", Description: "Chemotherapy, Radiotherapy and Immunotherapy for cancer"},
		{Key: "DES", ServiceType: "H", MinimumTier: "Silver", ServiceCode: "DentalSurgery"},
		{Key: "DIA", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "Diabetes", Description: "Diabetes Management (excluding insulin pumps)"},
		{Key: "DIL", ServiceType: "H", MinimumTier: "Gold", ServiceCode: "Dialysis"},
		{Key: "DGS", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "DigestiveSystem"},
		{Key: "ENT", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "EarNoseThroat", Description: "Ear, Nose & Throat"},
		{Key: "EYE", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "Eye", Description: "Eye (not cataracts)"},
		{Key: "GAS", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "GastrointestinalEndoscopy"},
		{Key: "GYN", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "Gynaecology"},
		{Key: "HVA", ServiceType: "H", MinimumTier: "Silver", ServiceCode: "HeartVascular", Description: "Heart & Vascular System"},
		{Key: "HIA", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "HerniaAppendix", Description: "Hernia & Appendix"},
		{Key: "HPS", ServiceType: "H", MinimumTier: "Basic", ServiceCode: "HospitalPsychiatric", Description: "Hospital Psychiatric Services"},
		{Key: "IHD", ServiceType: "H", MinimumTier: "Silver", ServiceCode: "ImplantationHearingDevices", Description: "Implantation of Hearing Devices"},
		{Key: "INS", ServiceType: "H", MinimumTier: "Gold", ServiceCode: "InsulinPumps"},
		{Key: "JRC", ServiceType: "H", MinimumTier: "Silver", ServiceCode: "JointReconstructions"},
		{Key: "JRE", ServiceType: "H", MinimumTier: "Gold", ServiceCode: "JointReplacements"},
		{Key: "KID", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "KidneyBladder", Description: "Kidney & Bladder"},
		{Key: "LUN", ServiceType: "H", MinimumTier: "Silver", ServiceCode: "LungChest", Description: "Lung & Chest"},
		{Key: "MAR", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "MaleReproductive", Description: "Male Reproductive System"},
		{Key: "MTP", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "MiscarriageTerminationOfPregnancy", Description: "Miscarriage & Termination Of Pregnancy"},
		{Key: "PMM", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "PainManagement"},
		{Key: "PMD", ServiceType: "H", MinimumTier: "Gold", ServiceCode: "PainManagementWithDevice"},
		{Key: "PAL", ServiceType: "H", MinimumTier: "Basic", ServiceCode: "PalliativeCare"},
		{Key: "PLA", ServiceType: "H", MinimumTier: "Silver", ServiceCode: "PlasticReconstructiveSurgery", Description: "Plastic & Reconstructive Surgery"},
		{Key: "POS", ServiceType: "H", MinimumTier: "Silver", ServiceCode: "PodiatricSurgery", Description: "Podiatric Surgery (provided by a registered podiatric surgeon - limited benefits)"},
		{Key: "PRG", ServiceType: "H", MinimumTier: "Gold", ServiceCode: "PregnancyBirth", Description: "Pregnancy & Birth"},
		{Key: "REH", ServiceType: "H", MinimumTier: "Basic", ServiceCode: "Rehabilitation"},
		{Key: "SKN", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "Skin"},
		{Key: "SPS", ServiceType: "H", MinimumTier: "Gold", ServiceCode: "SleepStudies"},
		{Key: "TON", ServiceType: "H", MinimumTier: "Bronze", ServiceCode: "TonsilsAdenoidsGrommets", Description: "Tonsils, Adenoids & Grommets"},
		{Key: "WEI", ServiceType: "H", MinimumTier: "Gold", ServiceCode: "WeightLossSurgery"},
	}
}

// ServiceIndex resolves (service type, PHIO service code) pairs to their
// stored mnemonic. A miss means the reference tables were not seeded or the
// upstream feed introduced a new service.
type ServiceIndex map[string]string

func NewServiceIndex(services []HealthService) ServiceIndex {
	index := make(ServiceIndex, len(services))
	for _, service := range services {
		index[service.ServiceType+"/"+service.ServiceCode] = service.Key
	}
	return index
}

func (idx ServiceIndex) Resolve(serviceType, serviceCode string) (string, error) {
	key, ok := idx[serviceType+"/"+serviceCode]
	if !ok {
		return "", fmt.Errorf("health service %s/%s not in reference table", serviceType, serviceCode)
	}
	return key, nil
}

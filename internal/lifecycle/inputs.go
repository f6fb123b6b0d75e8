package lifecycle

import (
	"strings"
	"time"

	"AidLink/internal/models"
	apperrors "AidLink/pkg/errors"
)

const defaultEstimatedDuration = 60

// CreateAlertInput 创建警报参数
type CreateAlertInput struct {
	Title       string           `validate:"required,max=100"`
	Description string           `validate:"required,max=1000"`
	Type        string           `validate:"alerttype"`
	Severity    string           `validate:"severity"`
	Priority    int              `validate:"min=1,max=10"`
	Location    *models.Location `validate:"required"`
}

// Validate 填充默认值后按标签校验
func (in *CreateAlertInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Severity == "" {
		in.Severity = models.SeverityMedium
	}
	if in.Priority == 0 {
		in.Priority = 1
	}
	if err := checkStruct(in); err != nil {
		return err
	}
	return validateLocation(in.Location)
}

// CreateRequestInput 创建求助参数
type CreateRequestInput struct {
	Title             string               `validate:"required,max=100"`
	Description       string               `validate:"required,max=1000"`
	Type              string               `validate:"requesttype"`
	Priority          string               `validate:"priority"`
	Location          *models.Location     `validate:"required"`
	Requirements      *models.Requirements `validate:"required"`
	UrgentBy          *time.Time
	EstimatedDuration int `validate:"min=1"`
}

// Validate 填充默认值后校验，now 用于校验 urgentBy
func (in *CreateRequestInput) Validate(now time.Time) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if in.Requirements == nil {
		in.Requirements = &models.Requirements{}
	}
	req := in.Requirements
	if req.PeopleNeeded == 0 {
		req.PeopleNeeded = 1
	}
	if req.EquipmentNeeded == nil {
		req.EquipmentNeeded = []string{}
	}
	if in.EstimatedDuration == 0 {
		in.EstimatedDuration = defaultEstimatedDuration
	}
	if err := checkStruct(in); err != nil {
		return err
	}
	if err := validateLocation(in.Location); err != nil {
		return err
	}
	skills, err := NormalizeSkills(req.SkillsRequired)
	if err != nil {
		return err
	}
	req.SkillsRequired = skills

	if in.UrgentBy != nil {
		if !in.UrgentBy.After(now) {
			return apperrors.Validation("urgentBy must be in the future")
		}
		urgentBy := in.UrgentBy.UTC().Truncate(time.Millisecond)
		in.UrgentBy = &urgentBy
	}
	return nil
}

// FeedbackInput 求助评价
type FeedbackInput struct {
	Rating  int    `validate:"min=1,max=5"`
	Comment string `validate:"max=1000"`
}

func (in *FeedbackInput) Validate() error {
	in.Comment = strings.TrimSpace(in.Comment)
	return checkStruct(in)
}

// LocationInput 用户位置
type LocationInput struct {
	Latitude  *float64 `validate:"required,min=-90,max=90"`
	Longitude *float64 `validate:"required,min=-180,max=180"`
	Address   string   `validate:"max=255"`
}

func (in *LocationInput) Validate() error {
	in.Address = strings.TrimSpace(in.Address)
	return checkStruct(in)
}

// NormalizeSkills 校验技能词表并去重，保持原有顺序
func NormalizeSkills(skills []string) ([]string, error) {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if err := checkVar("skill", s, "skill"); err != nil {
			return nil, err
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

func validateLocation(loc *models.Location) error {
	loc.Address = strings.TrimSpace(loc.Address)
	return checkStruct(loc)
}

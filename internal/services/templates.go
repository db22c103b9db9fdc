package services

import (
	"context"
	"fmt"
	"time"

	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/models"
	"gorm.io/gorm"
)

// TemplateService loads card templates with their entries, POS and references.
type TemplateService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{db: db, now: time.Now}
}

// Template loads a template by id
func (s *TemplateService) Template(ctx context.Context, id string) (*callcard.Template, error) {
	db := quiet(conn(ctx, s.db))
	var tmpl models.Template
	if err := db.Where("id = ?", id).First(&tmpl).Error; err != nil {
		return nil, notFound(err, "template", id)
	}
	out, err := s.load(db, []models.Template{tmpl})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Assigned lists the active templates of the game type assigned to the
// user group or directly to the user and valid now.
func (s *TemplateService) Assigned(ctx context.Context, q callcard.TemplateQuery) ([]callcard.Template, error) {
	db := quiet(conn(ctx, s.db))
	now := s.now()

	direct := db.Model(&models.TemplateUser{}).Select("template_id").Where("user_id = ?", q.UserID)

	var templates []models.Template
	err := db.
		Where("active = ? AND game_type_id = ?", true, q.GameTypeID).
		Where(db.Where("user_group_id = ?", q.UserGroupID).Or("id IN (?)", direct)).
		Where("start_date IS NULL OR start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now).
		Order("id").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("assigned templates of %s: %w", q.UserID, err)
	}
	if len(templates) == 0 {
		return nil, nil
	}
	return s.load(db, templates)
}

// load attaches entries, active POS rows and active references.
func (s *TemplateService) load(db *gorm.DB, templates []models.Template) ([]callcard.Template, error) {
	ids := make([]string, len(templates))
	for i, t := range templates {
		ids[i] = t.ID
	}

	var entries []models.TemplateEntry
	if err := db.Where("template_id IN ?", ids).Order("ordering, id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("template entries: %w", err)
	}
	var pos []models.TemplatePOS
	if err := db.Where("template_id IN ? AND active = ?", ids, true).
		Order("group_id DESC").Order("ordering").Find(&pos).Error; err != nil {
		return nil, fmt.Errorf("template pos: %w", err)
	}
	var refs []models.TemplateReference
	if err := db.Where("template_id IN ? AND active = ?", ids, true).
		Order("ordering, id").Find(&refs).Error; err != nil {
		return nil, fmt.Errorf("template references: %w", err)
	}

	out := make([]callcard.Template, len(templates))
	index := make(map[string]int, len(templates))
	for i, t := range templates {
		out[i].Template = t
		index[t.ID] = i
	}
	for _, e := range entries {
		i := index[e.TemplateID]
		out[i].Entries = append(out[i].Entries, e)
	}
	for _, p := range pos {
		i := index[p.TemplateID]
		out[i].POS = append(out[i].POS, p)
	}
	for _, r := range refs {
		i := index[r.TemplateID]
		out[i].References = append(out[i].References, r)
	}
	return out, nil
}

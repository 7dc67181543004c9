package services

import "github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"

// Catalog is an assessment with its questions sorted by order_index
type Catalog struct {
	Assessment *models.Assessment `json:"assessment"`
	Questions  []models.Question  `json:"questions"`
}

func (c *Catalog) Len() int {
	return len(c.Questions)
}

func (c *Catalog) Last() int {
	return len(c.Questions) - 1
}

// IndexByOrder maps a persisted position to a question index
func (c *Catalog) IndexByOrder(order int) (int, bool) {
	for i := range c.Questions {
		if c.Questions[i].OrderIndex == order {
			return i, true
		}
	}
	return 0, false
}

func (c *Catalog) IndexByQuestionID(id uint) (int, bool) {
	for i := range c.Questions {
		if c.Questions[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (c *Catalog) Question(id uint) (*models.Question, bool) {
	if i, ok := c.IndexByQuestionID(id); ok {
		return &c.Questions[i], true
	}
	return nil, false
}

// ResolvePosition returns the index for a stored position; unknown or missing positions fall back to 0
func (c *Catalog) ResolvePosition(order *int) int {
	if order == nil {
		return 0
	}
	if i, ok := c.IndexByOrder(*order); ok {
		return i
	}
	return 0
}

// PublicView copies the catalog without correct answers
func (c *Catalog) PublicView() *Catalog {
	assessment := *c.Assessment
	assessment.Questions = nil

	questions := make([]models.Question, len(c.Questions))
	for i, q := range c.Questions {
		q.CorrectOptionIndex = nil
		q.Options = append([]models.QuestionOption(nil), q.Options...)
		questions[i] = q
	}

	return &Catalog{Assessment: &assessment, Questions: questions}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Category is a book category in the catalog
type Category struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Category) TableName() string { return "categories" }

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Author is a book author in the catalog
type Author struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Author) TableName() string { return "authors" }

func (a *Author) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Publisher is a publishing house in the catalog
type Publisher struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Publisher) TableName() string { return "publishers" }

func (p *Publisher) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Book is one title in the catalog. Stock and shelf details live with the
// circulation system; the insight engine only reads the dimensions below.
type Book struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	Title       string         `json:"title" gorm:"not null;index"`
	CategoryID  uuid.UUID      `json:"category_id" gorm:"type:uuid;index"`
	AuthorID    uuid.UUID      `json:"author_id" gorm:"type:uuid;index"`
	PublisherID uuid.UUID      `json:"publisher_id" gorm:"type:uuid;index"`
	PublishYear int            `json:"publish_year"`
	Attributes  datatypes.JSON `json:"attributes,omitempty"`
	AddedAt     time.Time      `json:"added_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (b *Book) TableName() string { return "books" }

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.AddedAt.IsZero() {
		b.AddedAt = time.Now()
	}
	return nil
}

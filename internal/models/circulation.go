package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reader is a registered library member
type Reader struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	FullName  string     `json:"full_name" gorm:"not null"`
	Email     string     `json:"email" gorm:"index"`
	CardStart time.Time  `json:"card_start" gorm:"not null;index"`
	CardEnd   *time.Time `json:"card_end,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r *Reader) TableName() string { return "readers" }

func (r *Reader) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BorrowSlip is one borrow event. ReturnDate is nil while the book is out.
type BorrowSlip struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	ReaderID   uuid.UUID  `json:"reader_id" gorm:"type:uuid;not null;index"`
	BookID     uuid.UUID  `json:"book_id" gorm:"type:uuid;not null;index"`
	BorrowDate time.Time  `json:"borrow_date" gorm:"not null;index"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Status     string     `json:"status" gorm:"default:'borrowed'"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (b *BorrowSlip) TableName() string { return "borrow_slips" }

func (b *BorrowSlip) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Penalty is a fine issued against a borrow slip (late return, damage,
// loss). Amounts are stored as exact decimals and converted to float64 at
// the insight boundary.
type Penalty struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	BorrowSlipID uuid.UUID       `json:"borrow_slip_id" gorm:"type:uuid;index"`
	ReaderID     uuid.UUID       `json:"reader_id" gorm:"type:uuid;index"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(12,2)"`
	Reason       string          `json:"reason"`
	Paid         bool            `json:"paid" gorm:"default:false"`
	CreatedAt    time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (p *Penalty) TableName() string { return "penalties" }

func (p *Penalty) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AmountFloat returns the penalty amount as a plain float for API payloads.
func (p *Penalty) AmountFloat() float64 {
	f, _ := p.Amount.Float64()
	return f
}

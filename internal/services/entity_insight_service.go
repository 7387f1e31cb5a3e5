package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recent-activity windows per entity kind, in months.
const (
	categoryRecentWindow  = 3
	authorRecentWindow    = 6
	publisherRecentWindow = 6
	DefaultTopN           = 10
)

// Category classification thresholds on recent/(total+1).
const (
	hotThreshold      = 0.4
	trendingThreshold = 0.25
)

// CategoryInsight describes demand for one book category.
type CategoryInsight struct {
	Name            string  `json:"name"`
	TotalBorrows    int64   `json:"total_borrows"`
	RecentBorrows   int64   `json:"recent_borrows"`
	AvgLoanDays     float64 `json:"avg_loan_days"`
	GrowthIndicator float64 `json:"growth_indicator"`
	Classification  string  `json:"classification"`
	PopularityScore float64 `json:"popularity_score"`
}

// CategoryInsightResult is the envelope for category analysis.
type CategoryInsightResult struct {
	Success       bool              `json:"success"`
	Message       string            `json:"message,omitempty"`
	Categories    []CategoryInsight `json:"categories,omitempty"`
	HotCount      int               `json:"hot_count"`
	TrendingCount int               `json:"trending_count"`
	ColdCount     int               `json:"cold_count"`
}

// AuthorInsight describes borrowing interest in one author.
type AuthorInsight struct {
	Name            string  `json:"name"`
	TotalBooks      int64   `json:"total_books"`
	TotalBorrows    int64   `json:"total_borrows"`
	RecentBorrows   int64   `json:"recent_borrows"`
	PopularityIndex float64 `json:"popularity_index"`
}

// AuthorInsightResult is the envelope for author analysis.
type AuthorInsightResult struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message,omitempty"`
	TopAuthors []AuthorInsight `json:"top_authors,omitempty"`
}

// PublisherInsight describes catalog performance of one publisher.
type PublisherInsight struct {
	Name             string  `json:"name"`
	TotalBooks       int64   `json:"total_books"`
	TotalBorrows     int64   `json:"total_borrows"`
	RecentBooks      int64   `json:"recent_books"`
	PerformanceScore float64 `json:"performance_score"`
}

// PublisherInsightResult is the envelope for publisher analysis.
type PublisherInsightResult struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message,omitempty"`
	Publishers []PublisherInsight `json:"publishers,omitempty"`
}

// BookAgeBucket groups borrowing by publication age.
type BookAgeBucket struct {
	Label       string  `json:"label"`
	BookCount   int64   `json:"book_count"`
	BorrowCount int64   `json:"borrow_count"`
	BorrowShare float64 `json:"borrow_share"`
}

// BookAgeResult is the envelope for book-age analysis.
type BookAgeResult struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message,omitempty"`
	Buckets      []BookAgeBucket `json:"buckets,omitempty"`
	TotalBorrows int64           `json:"total_borrows"`
}

// EntityInsightService joins catalog dimensions with borrow facts and
// scores categories, authors and publishers. Everything is recomputed per
// call; nothing is cached.
type EntityInsightService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewEntityInsightService creates a new EntityInsightService.
func NewEntityInsightService(db *gorm.DB, logger *zap.Logger) *EntityInsightService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityInsightService{
		db:     db,
		logger: logger.Named("entity_insights"),
	}
}

// scanRows runs one bounded aggregate query and scans the result into the
// per-analyzer row shape. Every analyzer goes through here so timeout and
// error handling cannot drift between entity kinds.
func scanRows[T any](ctx context.Context, db *gorm.DB, query string, args ...interface{}) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rows []T
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// rankTop sorts by the given score descending and keeps the first limit
// entries.
func rankTop[T any](items []T, limit int, score func(T) float64) []T {
	sort.Slice(items, func(i, j int) bool {
		return score(items[i]) > score(items[j])
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// ClassifyCategory buckets a category by its recent-vs-total activity
// ratio. The +1 in the denominator keeps brand-new categories out of the
// hot bucket on a single borrow.
func ClassifyCategory(totalBorrows, recentBorrows int64) string {
	growth := float64(recentBorrows) / float64(totalBorrows+1)
	switch {
	case growth > hotThreshold:
		return "hot"
	case growth > trendingThreshold:
		return "trending"
	default:
		return "cold"
	}
}

type categoryRow struct {
	Name          string
	TotalBorrows  int64
	RecentBorrows int64
	AvgLoanDays   float64
}

// AnalyzeCategories scores every category, including zero-activity ones.
// Those are exactly the "cold" shelves a librarian wants surfaced.
func (s *EntityInsightService) AnalyzeCategories(ctx context.Context) CategoryInsightResult {
	cutoff := time.Now().AddDate(0, -categoryRecentWindow, 0)

	query := fmt.Sprintf(`
		SELECT
			c.name AS name,
			COUNT(bs.id) AS total_borrows,
			COALESCE(SUM(CASE WHEN bs.borrow_date >= ? THEN 1 ELSE 0 END), 0) AS recent_borrows,
			COALESCE(AVG(%s), 0) AS avg_loan_days
		FROM categories c
		LEFT JOIN books b ON b.category_id = c.id
		LEFT JOIN borrow_slips bs ON bs.book_id = b.id
		GROUP BY c.name
		ORDER BY total_borrows DESC
	`, s.loanDaysExpr())

	rows, err := scanRows[categoryRow](ctx, s.db, query, cutoff)
	if err != nil {
		s.logger.Error("category analysis query failed", zap.Error(err))
		return CategoryInsightResult{Success: false, Message: "category analysis unavailable"}
	}
	if len(rows) == 0 {
		return CategoryInsightResult{Success: false, Message: "no category data"}
	}

	var maxBorrows int64
	for _, r := range rows {
		if r.TotalBorrows > maxBorrows {
			maxBorrows = r.TotalBorrows
		}
	}

	result := CategoryInsightResult{Success: true}
	for _, r := range rows {
		classification := ClassifyCategory(r.TotalBorrows, r.RecentBorrows)
		switch classification {
		case "hot":
			result.HotCount++
		case "trending":
			result.TrendingCount++
		default:
			result.ColdCount++
		}

		popularity := 0.0
		if maxBorrows > 0 {
			popularity = 100 * float64(r.TotalBorrows) / float64(maxBorrows)
		}

		result.Categories = append(result.Categories, CategoryInsight{
			Name:            r.Name,
			TotalBorrows:    r.TotalBorrows,
			RecentBorrows:   r.RecentBorrows,
			AvgLoanDays:     r.AvgLoanDays,
			GrowthIndicator: float64(r.RecentBorrows) / float64(r.TotalBorrows+1),
			Classification:  classification,
			PopularityScore: popularity,
		})
	}

	return result
}

type authorRow struct {
	Name          string
	TotalBooks    int64
	TotalBorrows  int64
	RecentBorrows int64
}

// AnalyzeAuthors ranks authors by a weighted popularity index and keeps
// the top `limit`. Authors with no borrows at all are filtered out.
func (s *EntityInsightService) AnalyzeAuthors(ctx context.Context, limit int) AuthorInsightResult {
	if limit <= 0 {
		limit = DefaultTopN
	}
	cutoff := time.Now().AddDate(0, -authorRecentWindow, 0)

	query := `
		SELECT
			a.name AS name,
			COUNT(DISTINCT b.id) AS total_books,
			COUNT(bs.id) AS total_borrows,
			COALESCE(SUM(CASE WHEN bs.borrow_date >= ? THEN 1 ELSE 0 END), 0) AS recent_borrows
		FROM authors a
		JOIN books b ON b.author_id = a.id
		LEFT JOIN borrow_slips bs ON bs.book_id = b.id
		GROUP BY a.name
		HAVING COUNT(bs.id) > 0
	`

	rows, err := scanRows[authorRow](ctx, s.db, query, cutoff)
	if err != nil {
		s.logger.Error("author analysis query failed", zap.Error(err))
		return AuthorInsightResult{Success: false, Message: "author analysis unavailable"}
	}
	if len(rows) == 0 {
		return AuthorInsightResult{Success: false, Message: "no author borrowing data"}
	}

	authors := make([]AuthorInsight, 0, len(rows))
	for _, r := range rows {
		perBook := 0.0
		if r.TotalBooks > 0 {
			perBook = float64(r.TotalBorrows) / float64(r.TotalBooks)
		}
		authors = append(authors, AuthorInsight{
			Name:            r.Name,
			TotalBooks:      r.TotalBooks,
			TotalBorrows:    r.TotalBorrows,
			RecentBorrows:   r.RecentBorrows,
			PopularityIndex: 0.5*float64(r.TotalBorrows) + 0.3*float64(r.RecentBorrows) + 0.2*perBook,
		})
	}

	authors = rankTop(authors, limit, func(a AuthorInsight) float64 { return a.PopularityIndex })
	return AuthorInsightResult{Success: true, TopAuthors: authors}
}

type publisherRow struct {
	Name         string
	TotalBooks   int64
	TotalBorrows int64
	RecentBooks  int64
}

// AnalyzePublishers ranks publishers by a blended demand/freshness score
// and keeps the top `limit`.
func (s *EntityInsightService) AnalyzePublishers(ctx context.Context, limit int) PublisherInsightResult {
	if limit <= 0 {
		limit = DefaultTopN
	}
	cutoff := time.Now().AddDate(0, -publisherRecentWindow, 0)

	query := `
		SELECT
			p.name AS name,
			COUNT(DISTINCT b.id) AS total_books,
			COUNT(bs.id) AS total_borrows,
			COUNT(DISTINCT CASE WHEN b.added_at >= ? THEN b.id END) AS recent_books
		FROM publishers p
		JOIN books b ON b.publisher_id = p.id
		LEFT JOIN borrow_slips bs ON bs.book_id = b.id
		GROUP BY p.name
		HAVING COUNT(bs.id) > 0
	`

	rows, err := scanRows[publisherRow](ctx, s.db, query, cutoff)
	if err != nil {
		s.logger.Error("publisher analysis query failed", zap.Error(err))
		return PublisherInsightResult{Success: false, Message: "publisher analysis unavailable"}
	}
	if len(rows) == 0 {
		return PublisherInsightResult{Success: false, Message: "no publisher borrowing data"}
	}

	publishers := make([]PublisherInsight, 0, len(rows))
	for _, r := range rows {
		score := 0.0
		if r.TotalBooks > 0 {
			borrowsPerBook := float64(r.TotalBorrows) / float64(r.TotalBooks)
			freshness := float64(r.RecentBooks) / float64(r.TotalBooks)
			score = 100 * (0.6*borrowsPerBook + 0.4*freshness)
		}
		publishers = append(publishers, PublisherInsight{
			Name:             r.Name,
			TotalBooks:       r.TotalBooks,
			TotalBorrows:     r.TotalBorrows,
			RecentBooks:      r.RecentBooks,
			PerformanceScore: score,
		})
	}

	publishers = rankTop(publishers, limit, func(p PublisherInsight) float64 { return p.PerformanceScore })
	return PublisherInsightResult{Success: true, Publishers: publishers}
}

type bookAgeRow struct {
	PublishYear int
	BookCount   int64
	BorrowCount int64
}

// AnalyzeBookAge buckets borrowing by publication age to show how demand
// splits between new arrivals and backlist titles.
func (s *EntityInsightService) AnalyzeBookAge(ctx context.Context) BookAgeResult {
	query := `
		SELECT
			b.publish_year AS publish_year,
			COUNT(DISTINCT b.id) AS book_count,
			COUNT(bs.id) AS borrow_count
		FROM books b
		LEFT JOIN borrow_slips bs ON bs.book_id = b.id
		GROUP BY b.publish_year
	`

	rows, err := scanRows[bookAgeRow](ctx, s.db, query)
	if err != nil {
		s.logger.Error("book age query failed", zap.Error(err))
		return BookAgeResult{Success: false, Message: "book age analysis unavailable"}
	}
	if len(rows) == 0 {
		return BookAgeResult{Success: false, Message: "no catalog data"}
	}

	currentYear := time.Now().Year()
	buckets := []BookAgeBucket{
		{Label: "0-2 years"},
		{Label: "3-5 years"},
		{Label: "6-10 years"},
		{Label: "over 10 years"},
	}

	var totalBorrows int64
	for _, r := range rows {
		age := currentYear - r.PublishYear
		idx := 3
		switch {
		case age <= 2:
			idx = 0
		case age <= 5:
			idx = 1
		case age <= 10:
			idx = 2
		}
		buckets[idx].BookCount += r.BookCount
		buckets[idx].BorrowCount += r.BorrowCount
		totalBorrows += r.BorrowCount
	}

	if totalBorrows > 0 {
		for i := range buckets {
			buckets[i].BorrowShare = 100 * float64(buckets[i].BorrowCount) / float64(totalBorrows)
		}
	}

	return BookAgeResult{Success: true, Buckets: buckets, TotalBorrows: totalBorrows}
}

// loanDaysExpr computes loan duration in days from borrow to return.
// Unreturned slips have a NULL return date and fall out of the average.
func (s *EntityInsightService) loanDaysExpr() string {
	if s.db.Dialector.Name() == "sqlite" {
		return "julianday(bs.return_date) - julianday(bs.borrow_date)"
	}
	return "EXTRACT(EPOCH FROM (bs.return_date - bs.borrow_date)) / 86400"
}

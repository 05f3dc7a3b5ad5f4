package review

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
	reviewrepo "github.com/zeewalex59-ux/shopelitesource/internal/repository/review"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

const maxCommentLen = 2000

type Service struct {
	repo reviewrepo.Repository
}

func New(repo reviewrepo.Repository) *Service {
	return &Service{repo: repo}
}

type SubmitInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (s *Service) List(ctx context.Context, productID string) ([]domain.Review, error) {
	reviews, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, nil
}

// Submit stores a review by user. Verified mirrors the user's confirmed email.
func (s *Service) Submit(ctx context.Context, user domain.User, productID string, in SubmitInput) (*domain.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}
	comment := strings.TrimSpace(in.Comment)
	comment = truncate(comment, maxCommentLen)
	rv, err := s.repo.Create(ctx, domain.Review{
		ProductID: productID,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Rating:    in.Rating,
		Comment:   comment,
		Verified:  user.EmailVerified,
	})
	if err != nil {
		return nil, errors.Wrap(err, "submit review")
	}
	return rv, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

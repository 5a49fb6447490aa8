package service

import (
	"context"
	"time"

	"nextfilm/internal/models"
	"nextfilm/internal/observability"
	"nextfilm/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	// DefaultEnrichConcurrency bounds per-page signing fan-out.
	DefaultEnrichConcurrency = 8
)

// Feed sort keys accepted from clients.
const (
	SortCreatedAt     = "createdAt"
	SortUpdatedAt     = "updatedAt"
	SortLikesCount    = "likesCount"
	SortCommentsCount = "commentsCount"
)

var sortColumns = map[string]string{
	SortCreatedAt:     repository.OrderCreatedAt,
	SortUpdatedAt:     repository.OrderUpdatedAt,
	SortLikesCount:    repository.OrderLikesCount,
	SortCommentsCount: repository.OrderCommentsCount,
}

// FeedQuery selects a feed page. ViewerID 0 is an anonymous viewer.
type FeedQuery struct {
	Page     int
	PageSize int
	SortKey  string
	ViewerID uint
}

// FeedService assembles viewer-specific feed pages and post details.
type FeedService struct {
	postRepo    repository.PostRepository
	media       *Media
	concurrency int
	log         *observability.ServiceLogger
}

func NewFeedService(postRepo repository.PostRepository, media *Media, concurrency int) *FeedService {
	if concurrency <= 0 {
		concurrency = DefaultEnrichConcurrency
	}
	return &FeedService{
		postRepo:    postRepo,
		media:       media,
		concurrency: concurrency,
		log:         observability.NewServiceLogger("feed"),
	}
}

// normalizePage applies the page defaults and the page size cap.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// sortOrder maps a client sort key to a column. Recency sorts newest first;
// every other key sorts ascending. Unknown keys fall back to recency.
func sortOrder(key string) (string, bool) {
	column, ok := sortColumns[key]
	if !ok || key == SortCreatedAt {
		return repository.OrderCreatedAt, true
	}
	return column, false
}

// GetPage returns one page of the global feed with viewer-relative fields.
func (s *FeedService) GetPage(ctx context.Context, q FeedQuery) (*models.FeedPage, error) {
	page, size := normalizePage(q.Page, q.PageSize)
	column, desc := sortOrder(q.SortKey)

	ctx, span := observability.StartSpan(ctx, "feed.page",
		attribute.Int("feed.page", page),
		attribute.Int("feed.page_size", size),
		attribute.String("feed.order", column),
	)
	start := time.Now()

	result, err := s.assemble(ctx, repository.PostQuery{
		OrderBy: column,
		Desc:    desc,
		Limit:   size,
		Offset:  (page - 1) * size,
	}, page, size, q.ViewerID)

	observability.FeedAssemblyLatency.WithLabelValues("global").Observe(time.Since(start).Seconds())
	observability.EndSpan(span, err)
	return result, err
}

// GetByOwner returns ownerID's posts newest first, without viewer-relative fields.
func (s *FeedService) GetByOwner(ctx context.Context, ownerID uint, page, pageSize int) (*models.FeedPage, error) {
	page, size := normalizePage(page, pageSize)

	ctx, span := observability.StartSpan(ctx, "feed.owner",
		attribute.Int64("feed.owner_id", int64(ownerID)),
		attribute.Int("feed.page", page),
	)
	start := time.Now()

	result, err := s.assemble(ctx, repository.PostQuery{
		OwnerID: ownerID,
		OrderBy: repository.OrderCreatedAt,
		Desc:    true,
		Limit:   size,
		Offset:  (page - 1) * size,
	}, page, size, 0)

	observability.FeedAssemblyLatency.WithLabelValues("owner").Observe(time.Since(start).Seconds())
	observability.EndSpan(span, err)
	return result, err
}

func (s *FeedService) assemble(ctx context.Context, q repository.PostQuery, page, size int, viewerID uint) (*models.FeedPage, error) {
	posts, total, err := s.postRepo.FindAndCount(ctx, q)
	if err != nil {
		return nil, err
	}

	items := make([]models.FeedItem, len(posts))
	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	var liked map[uint]bool
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	// One like-state query per page, looked up per item below.
	if viewerID != 0 && len(posts) > 0 {
		g.Go(func() error {
			likedIDs, err := s.postRepo.GetLikedPostIDs(gctx, viewerID, ids)
			if err != nil {
				observability.FeedEnrichmentFailures.WithLabelValues("is_liked").Inc()
				s.log.Warn(gctx, "like state unavailable", "viewer_id", viewerID, "error", err.Error())
				return nil
			}
			liked = make(map[uint]bool, len(likedIDs))
			for _, id := range likedIDs {
				liked[id] = true
			}
			return nil
		})
	}

	for i := range posts {
		post := &posts[i]
		item := &items[i]
		g.Go(func() error {
			*item = s.item(gctx, post)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		items[i].IsLiked = liked[items[i].ID]
	}

	return &models.FeedPage{
		Posts:       items,
		HasNextPage: int64(page)*int64(size) < total,
		TotalPages:  totalPages(total, size),
		Total:       total,
		Page:        page,
		Limit:       size,
	}, nil
}

// item signs the author avatar and post image; failures degrade to null.
func (s *FeedService) item(ctx context.Context, post *models.Post) models.FeedItem {
	avatarURL := s.media.SignedURL(ctx, post.User.Avatar)
	if avatarURL == nil && post.User.Avatar != "" {
		observability.FeedEnrichmentFailures.WithLabelValues("avatar_url").Inc()
	}
	imageURL := s.media.SignedURL(ctx, post.ImagePath)
	if imageURL == nil && post.ImagePath != "" {
		observability.FeedEnrichmentFailures.WithLabelValues("image_url").Inc()
	}

	return models.FeedItem{
		ID:            post.ID,
		Content:       post.Content,
		ImageURL:      imageURL,
		LikesCount:    post.LikesCount,
		CommentsCount: post.CommentsCount,
		User: models.UserSummary{
			ID:        post.User.ID,
			FirstName: post.User.FirstName,
			LastName:  post.User.LastName,
			Username:  post.User.Username,
			AvatarURL: avatarURL,
		},
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

func totalPages(total int64, size int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// GetByID returns a single post with its signed image and comments.
func (s *FeedService) GetByID(ctx context.Context, postID uint) (*models.PostDetail, error) {
	post, err := s.postRepo.GetWithComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	comments := post.Comments
	if comments == nil {
		comments = []models.Comment{}
	}
	for i := range comments {
		comments[i].User.Public()
	}

	return &models.PostDetail{
		ID:            post.ID,
		Content:       post.Content,
		ImageURL:      s.media.SignedURL(ctx, post.ImagePath),
		LikesCount:    post.LikesCount,
		CommentsCount: post.CommentsCount,
		UserID:        post.UserID,
		Comments:      comments,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}, nil
}

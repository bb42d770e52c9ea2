package communities

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/pkg/db"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	"github.com/Blazious/fun-learning-system/pkg/pagination"
)

// ErrAlreadyMember signals a join attempt by an existing member. Callers
// treat it as a benign conflict.
var ErrAlreadyMember = errors.New("user is already a community member")

// Repository manages persistence for communities, memberships, topics, and posts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCommunity(ctx context.Context, community *models.Community) error
	FindCommunityByID(ctx context.Context, id uuid.UUID) (*models.Community, error)
	FindCommunityBySlug(ctx context.Context, slug string) (*models.Community, error)
	ListCommunities(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Community, error)
	UpdateCommunity(ctx context.Context, id uuid.UUID, updates map[string]any) error

	AddMember(ctx context.Context, member *models.CommunityMember) error
	RemoveMember(ctx context.Context, communityID, userID uuid.UUID) error
	FindMember(ctx context.Context, communityID, userID uuid.UUID) (*models.CommunityMember, error)
	ListMembers(ctx context.Context, communityID uuid.UUID) ([]models.CommunityMember, error)
	CountMembersByRole(ctx context.Context, communityID uuid.UUID, role enums.MemberRole) (int64, error)

	CreateTopic(ctx context.Context, topic *models.CommunityTopic) error
	FindTopicByID(ctx context.Context, id uuid.UUID) (*models.CommunityTopic, error)
	ListTopics(ctx context.Context, communityID uuid.UUID) ([]models.CommunityTopic, error)
	UpdateTopic(ctx context.Context, id uuid.UUID, updates map[string]any) error

	CreatePost(ctx context.Context, post *models.CommunityPost) error
	FindPostByID(ctx context.Context, id uuid.UUID) (*models.CommunityPost, error)
	ListPostsByTopic(ctx context.Context, topicID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.CommunityPost, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a communities repository bound to the provided database.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCommunity(ctx context.Context, community *models.Community) error {
	return r.db.WithContext(ctx).Create(community).Error
}

func (r *repository) FindCommunityByID(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).First(&community, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *repository) FindCommunityBySlug(ctx context.Context, slug string) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).First(&community, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *repository) ListCommunities(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Community, error) {
	query := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit)

	if cursor != nil {
		query = query.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var communities []models.Community
	if err := query.Find(&communities).Error; err != nil {
		return nil, err
	}
	return communities, nil
}

func (r *repository) UpdateCommunity(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Community{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) AddMember(ctx context.Context, member *models.CommunityMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		if db.IsUniqueViolation(err, "idx_community_members_pair") {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (r *repository) RemoveMember(ctx context.Context, communityID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindMember(ctx context.Context, communityID, userID uuid.UUID) (*models.CommunityMember, error) {
	var member models.CommunityMember
	if err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) ListMembers(ctx context.Context, communityID uuid.UUID) ([]models.CommunityMember, error) {
	var members []models.CommunityMember
	if err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) CountMembersByRole(ctx context.Context, communityID uuid.UUID, role enums.MemberRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommunityMember{}).
		Where("community_id = ? AND role = ?", communityID, role).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateTopic(ctx context.Context, topic *models.CommunityTopic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}

func (r *repository) FindTopicByID(ctx context.Context, id uuid.UUID) (*models.CommunityTopic, error) {
	var topic models.CommunityTopic
	if err := r.db.WithContext(ctx).First(&topic, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *repository) ListTopics(ctx context.Context, communityID uuid.UUID) ([]models.CommunityTopic, error) {
	var topics []models.CommunityTopic
	if err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("is_pinned DESC").
		Order("created_at DESC").
		Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

func (r *repository) UpdateTopic(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.CommunityTopic{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreatePost(ctx context.Context, post *models.CommunityPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *repository) FindPostByID(ctx context.Context, id uuid.UUID) (*models.CommunityPost, error) {
	var post models.CommunityPost
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *repository) ListPostsByTopic(ctx context.Context, topicID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.CommunityPost, error) {
	query := r.db.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit)

	if cursor != nil {
		query = query.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var posts []models.CommunityPost
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

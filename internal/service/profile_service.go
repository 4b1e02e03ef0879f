package service

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/cache"
	"Ripple/internal/model"
	"Ripple/internal/pkg/minio"
	"Ripple/internal/pkg/security"
	"Ripple/internal/repository"
	"context"
	log "log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// ProfileService 用户资料编排：注册、登录、资料读取与级联注销。
// 关系库是唯一事实来源，缓存只做读加速与索引。
type ProfileService interface {
	CreateProfile(ctx context.Context, registerDTO *dto.RegisterDTO) (*dto.ProfileDTO, error)
	Login(ctx context.Context, account, password string) (string, *dto.ProfileDTO, error)
	GetProfile(ctx context.Context, userID string) (*dto.ProfileDTO, error)
	GetProfileByUsername(ctx context.Context, username string) (*dto.ProfileDTO, error)
	SearchUsernames(ctx context.Context, query string) ([]string, error)
	DeleteProfile(ctx context.Context, userID string) error
}

type profileServiceImpl struct {
	userRepo   repository.UserRepo
	postRepo   repository.PostRepo
	followRepo repository.UserFollowRepo
	profiles   *cache.Profiles
	validate   *validator.Validate
}

func NewProfileService(
	userRepo repository.UserRepo,
	postRepo repository.PostRepo,
	followRepo repository.UserFollowRepo,
	profiles *cache.Profiles,
) ProfileService {
	return &profileServiceImpl{
		userRepo:   userRepo,
		postRepo:   postRepo,
		followRepo: followRepo,
		profiles:   profiles,
		validate:   validator.New(),
	}
}

// CreateProfile 注册。唯一性先查缓存索引再回源关系库，两边都过才落库
func (s *profileServiceImpl) CreateProfile(ctx context.Context, registerDTO *dto.RegisterDTO) (*dto.ProfileDTO, error) {
	if err := s.validate.Struct(registerDTO); err != nil {
		return nil, ErrParamInvalid
	}

	taken, err := s.profiles.UsernameTaken(ctx, registerDTO.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUserUsernameExist
	}
	taken, err = s.profiles.EmailTaken(ctx, registerDTO.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUserEmailExist
	}

	// 缓存索引可能落后于库，关系库再兜底一次
	existing, err := s.userRepo.GetUserByUsername(ctx, registerDTO.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserUsernameExist
	}
	existing, err = s.userRepo.GetUserByEmail(ctx, registerDTO.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserEmailExist
	}

	hashed, err := security.HashPassword(registerDTO.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:        uuid.NewString(),
		Username:  registerDTO.Username,
		Email:     registerDTO.Email,
		Password:  hashed,
		CreatedAt: time.Now(),
	}
	if registerDTO.FirstName != "" {
		user.FirstName = &registerDTO.FirstName
	}
	if registerDTO.LastName != "" {
		user.LastName = &registerDTO.LastName
	}
	if registerDTO.Bio != "" {
		user.Bio = &registerDTO.Bio
	}

	if err = s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err = s.profiles.Create(ctx, userToCachedProfile(user)); err != nil {
		return nil, err
	}

	return userToProfileDTO(user), nil
}

// Login 支持用户名或邮箱登录，成功返回 JWT
func (s *profileServiceImpl) Login(ctx context.Context, account, password string) (string, *dto.ProfileDTO, error) {
	if account == "" || password == "" {
		return "", nil, ErrMissingLoginCredentials
	}

	var user *model.User
	var err error
	if strings.Contains(account, "@") {
		user, err = s.userRepo.GetUserByEmail(ctx, account)
	} else {
		user, err = s.userRepo.GetUserByUsername(ctx, account)
	}
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrUserNotFound
	}

	if err = security.CheckPasswordHash(password, user.Password); err != nil {
		return "", nil, ErrPasswordIncorrect
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, userToProfileDTO(user), nil
}

// GetProfile 缓存旁路读：命中直接返回，未命中回源并回填
func (s *profileServiceImpl) GetProfile(ctx context.Context, userID string) (*dto.ProfileDTO, error) {
	cached, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cachedToProfileDTO(cached), nil
	}

	user, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err = s.profiles.Create(ctx, userToCachedProfile(user)); err != nil {
		log.WarnContext(ctx, "profile cache backfill failed", "user_id", userID, "err", err)
	}
	return userToProfileDTO(user), nil
}

func (s *profileServiceImpl) GetProfileByUsername(ctx context.Context, username string) (*dto.ProfileDTO, error) {
	cached, err := s.profiles.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cachedToProfileDTO(cached), nil
	}

	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err = s.profiles.Create(ctx, userToCachedProfile(user)); err != nil {
		log.WarnContext(ctx, "profile cache backfill failed", "user_id", user.ID, "err", err)
	}
	return userToProfileDTO(user), nil
}

func (s *profileServiceImpl) SearchUsernames(ctx context.Context, query string) ([]string, error) {
	if query == "" {
		return nil, ErrParamInvalid
	}
	return s.profiles.SearchUsernames(ctx, query)
}

// DeleteProfile 注销级联：先收集媒体引用，再清缓存，最后清关系库。
// 媒体对象异步回收，失败不影响注销结果。
func (s *profileServiceImpl) DeleteProfile(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	posts, err := s.postRepo.ListPostsByAuthor(ctx, userID)
	if err != nil {
		return err
	}
	var refs []string
	for _, post := range posts {
		refs = append(refs, mediaRefs(post)...)
	}
	if user.Avatar != nil && *user.Avatar != "" {
		refs = append(refs, *user.Avatar)
	}
	if user.Banner != nil && *user.Banner != "" {
		refs = append(refs, *user.Banner)
	}

	if err = s.profiles.Delete(ctx, userID, user.Username, user.Email); err != nil {
		return err
	}

	if err = s.postRepo.DeletePostsByAuthor(ctx, userID); err != nil {
		return err
	}
	if err = s.followRepo.DeleteAllForUser(ctx, userID); err != nil {
		return err
	}
	if err = s.userRepo.DeleteUser(ctx, userID); err != nil {
		return err
	}

	if len(refs) > 0 {
		go func(refs []string) {
			if mErr := minio.DeleteObjects(context.Background(), refs); mErr != nil {
				log.Error("delete user media objects failed", "user_id", userID, "err", mErr)
			}
		}(refs)
	}
	return nil
}

func userToCachedProfile(user *model.User) *cache.CachedProfile {
	profile := &cache.CachedProfile{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.Password,
		CreatedAt:    user.CreatedAt,
	}
	if user.FirstName != nil {
		profile.FirstName = *user.FirstName
	}
	if user.LastName != nil {
		profile.LastName = *user.LastName
	}
	if user.Avatar != nil {
		profile.Avatar = *user.Avatar
	}
	if user.Banner != nil {
		profile.Banner = *user.Banner
	}
	if user.Bio != nil {
		profile.Bio = *user.Bio
	}
	return profile
}

func userToProfileDTO(user *model.User) *dto.ProfileDTO {
	out := &dto.ProfileDTO{}
	_ = copier.Copy(out, user)
	return out
}

func cachedToProfileDTO(profile *cache.CachedProfile) *dto.ProfileDTO {
	return &dto.ProfileDTO{
		ID:        profile.ID,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Username:  profile.Username,
		Email:     profile.Email,
		Avatar:    profile.Avatar,
		Banner:    profile.Banner,
		Bio:       profile.Bio,
		CreatedAt: profile.CreatedAt,
	}
}

package usecase

import (
	"context"

	"notemate/dto"
	"notemate/model"
	"notemate/repository"
	"notemate/utils"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgUserNotFound   = "User not found"
	msgEmailInUse     = "Email already in use"
	msgNotUserAccount = "Not authorized to modify this user"
)

type UsersService struct {
	Users UserStore
	Notes NoteStore
}

func NewUsersService(users UserStore, notes NoteStore) *UsersService {
	return &UsersService{Users: users, Notes: notes}
}

// Get returns the public profile with summaries of the user's active notes.
func (svc *UsersService) Get(ctx context.Context, id primitive.ObjectID) (*dto.UserProfile, error) {
	user, err := svc.Users.FindByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, msgUserNotFound)
	}
	notes, err := svc.Notes.TitlesByAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.ToUserProfile(user, notes), nil
}

func (svc *UsersService) List(ctx context.Context, actor *model.Actor, f repository.UserFilter, page utils.Page) (*dto.UsersPage, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("Admin access required")
	}
	if f.Role != "" && !f.Role.Valid() {
		return nil, invalid("Invalid role")
	}
	users, total, err := svc.Users.List(ctx, f, page)
	if err != nil {
		return nil, err
	}
	return &dto.UsersPage{Users: users, Pagination: utils.NewPagination(page, total)}, nil
}

// Update lets users edit themselves. Admins may edit anyone, including role
// and isActive, and may reach deactivated accounts.
func (svc *UsersService) Update(ctx context.Context, actor *model.Actor, id primitive.ObjectID, req dto.UpdateUserRequest) (*model.User, error) {
	if !model.CanModifyUser(actor, id) {
		return nil, forbidden(msgNotUserAccount)
	}
	if (req.Role != nil || req.IsActive != nil) && !actor.IsAdmin() {
		return nil, forbidden("Only admins can change role or account status")
	}

	set := bson.M{}
	for key, v := range map[string]*string{
		"name":       req.Name,
		"university": req.University,
		"course":     req.Course,
		"bio":        req.Bio,
		"avatar":     req.Avatar,
	} {
		if v != nil {
			set[key] = *v
		}
	}
	if req.Year != nil {
		set["year"] = *req.Year
	}
	if req.Email != nil {
		existing, err := svc.Users.FindByEmail(ctx, *req.Email)
		switch {
		case err == nil && existing.ID != id:
			return nil, conflict(msgEmailInUse)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
		set["email"] = *req.Email
	}
	if req.Role != nil {
		set["role"] = *req.Role
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}

	update := svc.Users.Update
	if actor.IsAdmin() {
		update = svc.Users.UpdateAny
	}
	user, err := update(ctx, id, set)
	if err != nil {
		return nil, orConflict(orNotFound(err, msgUserNotFound), msgEmailInUse)
	}
	return user, nil
}

func (svc *UsersService) Delete(ctx context.Context, actor *model.Actor, id primitive.ObjectID) error {
	if !actor.IsAdmin() {
		return forbidden("Admin access required")
	}
	return orNotFound(svc.Users.SoftDelete(ctx, id), msgUserNotFound)
}

func (svc *UsersService) Stats(ctx context.Context, id primitive.ObjectID) (*model.UserStats, error) {
	user, err := svc.Users.FindByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, msgUserNotFound)
	}
	stats, err := svc.Notes.AuthorStats(ctx, id)
	if err != nil {
		return nil, err
	}
	stats.Reputation = user.Reputation
	stats.FollowersCount = len(user.Followers)
	stats.FollowingCount = len(user.Following)
	return &stats, nil
}

func (svc *UsersService) Follow(ctx context.Context, actor *model.Actor, target primitive.ObjectID) (*dto.FollowResult, error) {
	return svc.edge(ctx, actor, target, true)
}

func (svc *UsersService) Unfollow(ctx context.Context, actor *model.Actor, target primitive.ObjectID) (*dto.FollowResult, error) {
	return svc.edge(ctx, actor, target, false)
}

func (svc *UsersService) edge(ctx context.Context, actor *model.Actor, target primitive.ObjectID, follow bool) (*dto.FollowResult, error) {
	if actor.ID == target {
		return nil, invalid("You cannot follow yourself")
	}
	if _, err := svc.Users.FindByID(ctx, target); err != nil {
		return nil, orNotFound(err, msgUserNotFound)
	}

	op := svc.Users.Unfollow
	if follow {
		op = svc.Users.Follow
	}
	if err := op(ctx, actor.ID, target); err != nil {
		return nil, err
	}

	after, err := svc.Users.FindByID(ctx, target)
	if err != nil {
		return nil, orNotFound(err, msgUserNotFound)
	}
	return &dto.FollowResult{Following: follow, FollowersCount: len(after.Followers)}, nil
}

func (svc *UsersService) Followers(ctx context.Context, id primitive.ObjectID, page utils.Page) (*dto.UserSummariesPage, error) {
	user, err := svc.Users.FindByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, msgUserNotFound)
	}
	return svc.summaries(ctx, user.Followers, page)
}

func (svc *UsersService) Following(ctx context.Context, id primitive.ObjectID, page utils.Page) (*dto.UserSummariesPage, error) {
	user, err := svc.Users.FindByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, msgUserNotFound)
	}
	return svc.summaries(ctx, user.Following, page)
}

func (svc *UsersService) summaries(ctx context.Context, ids []primitive.ObjectID, page utils.Page) (*dto.UserSummariesPage, error) {
	users, total, err := svc.Users.ListByIDs(ctx, ids, page)
	if err != nil {
		return nil, err
	}
	return &dto.UserSummariesPage{Users: users, Pagination: utils.NewPagination(page, total)}, nil
}

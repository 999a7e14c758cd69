package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"civicreport-be/models"
)

// memStore is an in-memory store for service tests. Writes made inside
// RunInTransaction are undone when the callback fails, and the upvote
// (issue, user) pair is unique like the real index.
type memStore struct {
	mu sync.Mutex

	seq      int64
	issues   map[int64]models.Issue
	users    map[int64]models.User
	admins   map[int64]models.Admin
	comments map[int64]models.Comment
	upvotes  map[int64]models.Upvote

	transactions int

	// fault injection
	saveIssueErr     error
	saveIssueAfter   int // number of successful saves before saveIssueErr kicks in
	findErr          error
	beforeUpvoteSave func()
}

func newMemStore() *memStore {
	return &memStore{
		issues:   map[int64]models.Issue{},
		users:    map[int64]models.User{},
		admins:   map[int64]models.Admin{},
		comments: map[int64]models.Comment{},
		upvotes:  map[int64]models.Upvote{},
	}
}

type txKey struct{}

type txLog struct {
	undo []func()
}

func (s *memStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	log := &txLog{}
	err := fn(context.WithValue(ctx, txKey{}, log))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions++
	if err != nil {
		for i := len(log.undo) - 1; i >= 0; i-- {
			log.undo[i]()
		}
	}
	return err
}

// record registers an undo step. Callers hold s.mu.
func (s *memStore) record(ctx context.Context, undo func()) {
	if log, ok := ctx.Value(txKey{}).(*txLog); ok {
		log.undo = append(log.undo, undo)
	}
}

func (s *memStore) nextID() int64 {
	s.seq++
	return s.seq
}

// seeding helpers

func (s *memStore) addUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID()
	}
	if u.Role == "" {
		u.Role = models.RoleResident
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	s.users[u.ID] = u
	return &u
}

func (s *memStore) addAdmin(a models.Admin) *models.Admin {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.nextID()
	}
	s.admins[a.ID] = a
	return &a
}

func (s *memStore) addIssue(i models.Issue) *models.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i.ID == 0 {
		i.ID = s.nextID()
	}
	if i.Status == "" {
		i.Status = string(models.StatusSubmitted)
	}
	if i.Priority == "" {
		i.Priority = string(models.PriorityMedium)
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	s.issues[i.ID] = i
	return &i
}

func (s *memStore) addComment(c models.Comment) *models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.nextID()
	}
	s.comments[c.ID] = c
	return &c
}

func (s *memStore) addUpvote(u models.Upvote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID()
	}
	s.upvotes[u.ID] = u
}

func (s *memStore) issue(id int64) (models.Issue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.issues[id]
	return i, ok
}

func (s *memStore) upvoteCount(issueID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.upvotes {
		if u.IssueID == issueID {
			n++
		}
	}
	return n
}

// issues

func (s *memStore) FindIssue(_ context.Context, id int64) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	i, ok := s.issues[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &i, nil
}

func (s *memStore) SaveIssue(ctx context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveIssueErr != nil {
		if s.saveIssueAfter <= 0 {
			return s.saveIssueErr
		}
		s.saveIssueAfter--
	}
	old, ok := s.issues[issue.ID]
	if !ok {
		return models.ErrRecordNotFound
	}
	s.issues[issue.ID] = *issue
	s.record(ctx, func() { s.issues[old.ID] = old })
	return nil
}

func (s *memStore) InsertIssue(ctx context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue.ID = s.nextID()
	s.issues[issue.ID] = *issue
	id := issue.ID
	s.record(ctx, func() { delete(s.issues, id) })
	return nil
}

func (s *memStore) DeleteIssue(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.issues[id]
	if !ok {
		return models.ErrRecordNotFound
	}
	delete(s.issues, id)
	s.record(ctx, func() { s.issues[id] = old })
	for cid, c := range s.comments {
		if c.IssueID == id {
			delete(s.comments, cid)
			s.record(ctx, func() { s.comments[cid] = c })
		}
	}
	for uid, u := range s.upvotes {
		if u.IssueID == id {
			delete(s.upvotes, uid)
			s.record(ctx, func() { s.upvotes[uid] = u })
		}
	}
	return nil
}

func matchIssue(i models.Issue, f models.IssueFilter) bool {
	if f.IssueType != "" && i.IssueType != f.IssueType {
		return false
	}
	if f.Status != "" && i.Status != f.Status {
		return false
	}
	if f.Status == "" && len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if st == i.Status {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.Priority != "" && i.Priority != f.Priority {
		return false
	}
	if f.ReporterID != 0 && i.ReporterID != f.ReporterID {
		return false
	}
	if f.CreatedFrom != nil && i.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && !i.CreatedAt.Before(*f.CreatedTo) {
		return false
	}
	if (f.HasResolutionDate || f.ResolvedFrom != nil || f.ResolvedTo != nil) && i.ActualResolutionDate == nil {
		return false
	}
	if f.ResolvedFrom != nil && i.ActualResolutionDate.Before(*f.ResolvedFrom) {
		return false
	}
	if f.ResolvedTo != nil && !i.ActualResolutionDate.Before(*f.ResolvedTo) {
		return false
	}
	return true
}

func (s *memStore) filteredIssues(f models.IssueFilter) []models.Issue {
	out := make([]models.Issue, 0)
	for _, i := range s.issues {
		if matchIssue(i, f) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func paginate[T any](items []T, p models.Page) []T {
	start := int(p.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.PerPage, len(items))
	return items[start:end]
}

func (s *memStore) ListIssues(_ context.Context, f models.IssueFilter, p models.Page, oldestFirst bool) ([]models.Issue, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.filteredIssues(f)
	sort.SliceStable(all, func(a, b int) bool {
		if oldestFirst {
			return all[a].CreatedAt.Before(all[b].CreatedAt)
		}
		return all[a].CreatedAt.After(all[b].CreatedAt)
	})
	return paginate(all, p), int64(len(all)), nil
}

func (s *memStore) FindIssues(_ context.Context, f models.IssueFilter) ([]models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filteredIssues(f), nil
}

func (s *memStore) CountIssues(_ context.Context, f models.IssueFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filteredIssues(f))), nil
}

func (s *memStore) GroupIssues(_ context.Context, field string, f models.IssueFilter) ([]models.GroupCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int64{}
	for _, i := range s.filteredIssues(f) {
		switch field {
		case "status":
			counts[i.Status]++
		case "issue_type":
			counts[i.IssueType]++
		case "priority":
			counts[i.Priority]++
		default:
			return nil, fmt.Errorf("cannot group by %s", field)
		}
	}
	out := make([]models.GroupCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Key < out[b].Key })
	return out, nil
}

func (s *memStore) IssueLocations(_ context.Context) ([]models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Location, 0, len(s.issues))
	for _, i := range s.filteredIssues(models.IssueFilter{}) {
		out = append(out, models.Location{Latitude: i.Latitude, Longitude: i.Longitude})
	}
	return out, nil
}

// upvotes

func (s *memStore) FindUpvote(_ context.Context, issueID, userID int64) (*models.Upvote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.upvotes {
		if u.IssueID == issueID && u.UserID == userID {
			return &u, nil
		}
	}
	return nil, models.ErrRecordNotFound
}

func (s *memStore) InsertUpvote(ctx context.Context, upvote *models.Upvote) error {
	if s.beforeUpvoteSave != nil {
		s.beforeUpvoteSave()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.upvotes {
		if u.IssueID == upvote.IssueID && u.UserID == upvote.UserID {
			return fmt.Errorf("insert upvote: %w", models.ErrDuplicateKey)
		}
	}
	upvote.ID = s.nextID()
	s.upvotes[upvote.ID] = *upvote
	id := upvote.ID
	s.record(ctx, func() { delete(s.upvotes, id) })
	return nil
}

func (s *memStore) DeleteUpvote(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.upvotes[id]
	if !ok {
		return models.ErrRecordNotFound
	}
	delete(s.upvotes, id)
	s.record(ctx, func() { s.upvotes[id] = old })
	return nil
}

func (s *memStore) CountUpvotes(_ context.Context, issueID int64) (int64, error) {
	return int64(s.upvoteCount(issueID)), nil
}

func (s *memStore) CountAllUpvotes(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.upvotes)), nil
}

// comments

func matchComment(c models.Comment, f models.CommentFilter) bool {
	if f.IssueID != 0 && c.IssueID != f.IssueID {
		return false
	}
	if f.AuthorID != 0 && c.AuthorID != f.AuthorID {
		return false
	}
	if f.CreatedFrom != nil && c.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	return true
}

func (s *memStore) FindComment(_ context.Context, id int64) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &c, nil
}

func (s *memStore) InsertComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment.ID = s.nextID()
	s.comments[comment.ID] = *comment
	id := comment.ID
	s.record(ctx, func() { delete(s.comments, id) })
	return nil
}

func (s *memStore) SaveComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.comments[comment.ID]
	if !ok {
		return models.ErrRecordNotFound
	}
	s.comments[comment.ID] = *comment
	s.record(ctx, func() { s.comments[old.ID] = old })
	return nil
}

func (s *memStore) DeleteComment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.comments[id]
	if !ok {
		return models.ErrRecordNotFound
	}
	delete(s.comments, id)
	s.record(ctx, func() { s.comments[id] = old })
	return nil
}

func (s *memStore) ListComments(_ context.Context, f models.CommentFilter, p models.Page, newestFirst bool) ([]models.Comment, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]models.Comment, 0)
	for _, c := range s.comments {
		if matchComment(c, f) {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(a, b int) bool {
		if all[a].CreatedAt.Equal(all[b].CreatedAt) {
			return all[a].ID < all[b].ID
		}
		if newestFirst {
			return all[a].CreatedAt.After(all[b].CreatedAt)
		}
		return all[a].CreatedAt.Before(all[b].CreatedAt)
	})
	return paginate(all, p), int64(len(all)), nil
}

func (s *memStore) CountComments(_ context.Context, f models.CommentFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.comments {
		if matchComment(c, f) {
			n++
		}
	}
	return n, nil
}

// users and admins

func (s *memStore) FindUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &u, nil
}

func (s *memStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrRecordNotFound
}

func (s *memStore) InsertUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("insert user: %w", models.ErrDuplicateKey)
		}
	}
	user.ID = s.nextID()
	s.users[user.ID] = *user
	id := user.ID
	s.record(ctx, func() { delete(s.users, id) })
	return nil
}

func (s *memStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[user.ID]
	if !ok {
		return models.ErrRecordNotFound
	}
	s.users[user.ID] = *user
	s.record(ctx, func() { s.users[old.ID] = old })
	return nil
}

func (s *memStore) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	owned := map[int64]bool{}
	for iid, i := range s.issues {
		if i.ReporterID == id {
			owned[iid] = true
		}
	}
	s.mu.Unlock()
	for iid := range owned {
		if err := s.DeleteIssue(ctx, iid); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for cid, c := range s.comments {
		if c.AuthorID == id {
			delete(s.comments, cid)
			s.record(ctx, func() { s.comments[cid] = c })
		}
	}
	for uid, u := range s.upvotes {
		if u.UserID == id {
			delete(s.upvotes, uid)
			s.record(ctx, func() { s.upvotes[uid] = u })
		}
	}
	old, ok := s.users[id]
	if !ok {
		return models.ErrRecordNotFound
	}
	delete(s.users, id)
	s.record(ctx, func() { s.users[id] = old })
	return nil
}

func matchUser(u models.User, f models.UserFilter) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(u.FirstName), term) &&
			!strings.Contains(strings.ToLower(u.LastName), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) {
			return false
		}
	}
	if f.CreatedFrom != nil && u.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && !u.CreatedAt.Before(*f.CreatedTo) {
		return false
	}
	return true
}

func (s *memStore) ListUsers(_ context.Context, f models.UserFilter, p models.Page) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]models.User, 0)
	for _, u := range s.users {
		if matchUser(u, f) {
			all = append(all, u)
		}
	}
	sort.Slice(all, func(a, b int) bool { return all[a].ID > all[b].ID })
	return paginate(all, p), int64(len(all)), nil
}

func (s *memStore) CountUsers(_ context.Context, f models.UserFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if matchUser(u, f) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) FindAdmin(_ context.Context, id int64) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &a, nil
}

func (s *memStore) FindAdminByUsername(_ context.Context, username string) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.admins {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, models.ErrRecordNotFound
}

// rankings

func (s *memStore) rank(counts map[int64]int64, limit int) []models.ActivityCount {
	out := make([]models.ActivityCount, 0, len(counts))
	for id, n := range counts {
		u, ok := s.users[id]
		if !ok {
			continue
		}
		out = append(out, models.ActivityCount{UserID: id, FirstName: u.FirstName, LastName: u.LastName, Count: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count == out[b].Count {
			return out[a].UserID < out[b].UserID
		}
		return out[a].Count > out[b].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memStore) TopReporters(_ context.Context, limit int) ([]models.ActivityCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[int64]int64{}
	for _, i := range s.issues {
		counts[i.ReporterID]++
	}
	return s.rank(counts, limit), nil
}

func (s *memStore) TopCommenters(_ context.Context, limit int) ([]models.ActivityCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[int64]int64{}
	for _, c := range s.comments {
		counts[c.AuthorID]++
	}
	return s.rank(counts, limit), nil
}

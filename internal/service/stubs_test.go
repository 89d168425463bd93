package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/studynotes-api/internal/models"
	"github.com/noah-isme/studynotes-api/internal/repository"
	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
	"github.com/noah-isme/studynotes-api/pkg/storage"
)

type studentStoreStub struct {
	mu        sync.Mutex
	students  map[string]*models.Student
	enrolled  map[string]*models.Enrollment
	selected  map[string]*models.SelectedChapter
	personal  []models.PersonalFile
	chapters  *chapterStoreStub
	courses   *courseStoreStub
	createErr error
	seq       int
}

func newStudentStoreStub() *studentStoreStub {
	return &studentStoreStub{
		students: make(map[string]*models.Student),
		enrolled: make(map[string]*models.Enrollment),
		selected: make(map[string]*models.SelectedChapter),
	}
}

func (s *studentStoreStub) next(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *studentStoreStub) Create(ctx context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.students {
		if existing.Email == student.Email {
			return repository.ErrDuplicate
		}
	}
	student.ID = s.next("student")
	student.CreatedAt = time.Now()
	copy := *student
	s.students[student.ID] = &copy
	return nil
}

func (s *studentStoreStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if student, ok := s.students[id]; ok {
		copy := *student
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *studentStoreStub) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.students {
		if existing.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *studentStoreStub) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.enrolled {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return repository.ErrDuplicate
		}
	}
	enrollment.ID = s.next("enrollment")
	copy := *enrollment
	s.enrolled[enrollment.ID] = &copy
	return nil
}

func (s *studentStoreStub) FindEnrollment(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.enrolled {
		if e.StudentID == studentID && e.CourseID == courseID {
			copy := *e
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *studentStoreStub) ListEnrollments(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.EnrollmentDetail, 0)
	for _, e := range s.enrolled {
		if e.StudentID != studentID {
			continue
		}
		detail := models.EnrollmentDetail{Enrollment: *e}
		if s.courses != nil {
			if course, ok := s.courses.courses[e.CourseID]; ok {
				detail.CourseTitle = course.Title
				detail.CourseCode = course.CourseCode
			}
		}
		result = append(result, detail)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *studentStoreStub) AddSelectedChapter(ctx context.Context, selected *models.SelectedChapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.selected {
		if sc.EnrollmentID == selected.EnrollmentID && sc.ChapterID == selected.ChapterID {
			return repository.ErrDuplicate
		}
	}
	selected.ID = s.next("selected")
	copy := *selected
	s.selected[selected.ID] = &copy
	return nil
}

func (s *studentStoreStub) FindSelectedChapter(ctx context.Context, enrollmentID, chapterID string) (*models.SelectedChapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.selected {
		if sc.EnrollmentID == enrollmentID && sc.ChapterID == chapterID {
			copy := *sc
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *studentStoreStub) RemoveSelectedChapter(ctx context.Context, enrollmentID, chapterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sc := range s.selected {
		if sc.EnrollmentID == enrollmentID && sc.ChapterID == chapterID {
			delete(s.selected, id)
			return true, nil
		}
	}
	return false, nil
}

func (s *studentStoreStub) ListSelectedChapters(ctx context.Context, studentID string) ([]models.SelectedChapterDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.SelectedChapterDetail, 0)
	for _, sc := range s.selected {
		e, ok := s.enrolled[sc.EnrollmentID]
		if !ok || e.StudentID != studentID {
			continue
		}
		detail := models.SelectedChapterDetail{SelectedChapter: *sc}
		if s.chapters != nil {
			if chapter, ok := s.chapters.chapters[sc.ChapterID]; ok {
				detail.ChapterTitle = chapter.Title
			}
		}
		result = append(result, detail)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *studentStoreStub) AddPersonalFile(ctx context.Context, file *models.PersonalFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	file.ID = s.next("personal")
	s.personal = append(s.personal, *file)
	return nil
}

func (s *studentStoreStub) ListPersonalFiles(ctx context.Context, studentID string) ([]models.PersonalFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.PersonalFile, 0)
	for _, pf := range s.personal {
		sc, ok := s.selected[pf.SelectedChapterID]
		if !ok {
			continue
		}
		if e, ok := s.enrolled[sc.EnrollmentID]; ok && e.StudentID == studentID {
			result = append(result, pf)
		}
	}
	return result, nil
}

func (s *studentStoreStub) RemovePersonalFileLinks(ctx context.Context, fileID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.personal[:0]
	var removed int64
	for _, pf := range s.personal {
		if pf.FileID == fileID {
			removed++
			continue
		}
		kept = append(kept, pf)
	}
	s.personal = kept
	return removed, nil
}

func (s *studentStoreStub) PersonalFileReferenced(ctx context.Context, fileID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pf := range s.personal {
		if pf.FileID == fileID {
			return true, nil
		}
	}
	return false, nil
}

type courseStoreStub struct {
	courses map[string]*models.Course
	seq     int
}

func newCourseStoreStub() *courseStoreStub {
	return &courseStoreStub{courses: make(map[string]*models.Course)}
}

func (c *courseStoreStub) Create(ctx context.Context, course *models.Course) error {
	c.seq++
	course.ID = fmt.Sprintf("course-%d", c.seq)
	copy := *course
	c.courses[course.ID] = &copy
	return nil
}

func (c *courseStoreStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := c.courses[id]; ok {
		copy := *course
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (c *courseStoreStub) FindOwned(ctx context.Context, id, studentID string) (*models.Course, error) {
	if course, ok := c.courses[id]; ok && course.StudentID == studentID {
		copy := *course
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (c *courseStoreStub) ListByStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	result := make([]models.Course, 0)
	for _, course := range c.courses {
		if course.StudentID == studentID {
			result = append(result, *course)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type chapterStoreStub struct {
	mu        sync.Mutex
	chapters  map[string]*models.Chapter
	appendErr error
	seq       int
}

func newChapterStoreStub() *chapterStoreStub {
	return &chapterStoreStub{chapters: make(map[string]*models.Chapter)}
}

func (c *chapterStoreStub) Create(ctx context.Context, chapter *models.Chapter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	chapter.ID = fmt.Sprintf("chapter-%d", c.seq)
	chapter.FileIDs = []string{}
	chapter.ConversationIDs = []string{}
	copy := *chapter
	c.chapters[chapter.ID] = &copy
	return nil
}

func (c *chapterStoreStub) FindByID(ctx context.Context, id string) (*models.Chapter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if chapter, ok := c.chapters[id]; ok {
		copy := *chapter
		copy.FileIDs = append([]string(nil), chapter.FileIDs...)
		copy.ConversationIDs = append([]string(nil), chapter.ConversationIDs...)
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (c *chapterStoreStub) list(match func(*models.Chapter) bool) []models.Chapter {
	result := make([]models.Chapter, 0)
	for _, chapter := range c.chapters {
		if match(chapter) {
			result = append(result, *chapter)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (c *chapterStoreStub) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Chapter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list(func(ch *models.Chapter) bool { return ch.StudentID == studentID && ch.CourseID == courseID }), nil
}

func (c *chapterStoreStub) ListByCourse(ctx context.Context, courseID string) ([]models.Chapter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list(func(ch *models.Chapter) bool { return ch.CourseID == courseID }), nil
}

func (c *chapterStoreStub) AppendFile(ctx context.Context, chapterID, fileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.appendErr != nil {
		return c.appendErr
	}
	chapter, ok := c.chapters[chapterID]
	if !ok {
		return sql.ErrNoRows
	}
	chapter.FileIDs = append(chapter.FileIDs, fileID)
	return nil
}

func (c *chapterStoreStub) RetractFile(ctx context.Context, fileID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var touched int64
	for _, chapter := range c.chapters {
		kept := make([]string, 0, len(chapter.FileIDs))
		for _, id := range chapter.FileIDs {
			if id != fileID {
				kept = append(kept, id)
			}
		}
		if len(kept) != len(chapter.FileIDs) {
			touched++
		}
		chapter.FileIDs = kept
	}
	return touched, nil
}

func (c *chapterStoreStub) AddConversation(ctx context.Context, chapterID, conversationID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	chapter, ok := c.chapters[chapterID]
	if !ok {
		return false, sql.ErrNoRows
	}
	for _, id := range chapter.ConversationIDs {
		if id == conversationID {
			return false, nil
		}
	}
	chapter.ConversationIDs = append(chapter.ConversationIDs, conversationID)
	return true, nil
}

func (c *chapterStoreStub) ReferencesFile(ctx context.Context, fileID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, chapter := range c.chapters {
		for _, id := range chapter.FileIDs {
			if id == fileID {
				return true, nil
			}
		}
	}
	return false, nil
}

type fileStoreStub struct {
	mu        sync.Mutex
	files     map[string]*models.File
	order     []string
	createErr error
	lastQuery models.FileFilter
	listCalls int
	afterList func()
}

func newFileStoreStub() *fileStoreStub {
	return &fileStoreStub{files: make(map[string]*models.File)}
}

func (f *fileStoreStub) Create(ctx context.Context, file *models.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copy := *file
	f.files[file.ID] = &copy
	f.order = append(f.order, file.ID)
	return nil
}

func (f *fileStoreStub) FindByID(ctx context.Context, id string) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file, ok := f.files[id]; ok {
		copy := *file
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fileStoreStub) List(ctx context.Context, filter models.FileFilter) ([]models.File, error) {
	result := f.list(filter)
	if f.afterList != nil {
		f.afterList()
	}
	return result, nil
}

func (f *fileStoreStub) list(filter models.FileFilter) []models.File {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = filter
	f.listCalls++
	result := make([]models.File, 0)
	for _, id := range f.order {
		file, ok := f.files[id]
		if !ok {
			continue
		}
		if filter.StudentID != "" && file.StudentID != filter.StudentID {
			continue
		}
		if filter.CourseID != "" && file.CourseID != filter.CourseID {
			continue
		}
		if filter.ChapterID != "" && file.ChapterID != filter.ChapterID {
			continue
		}
		result = append(result, *file)
	}
	return result
}

func (f *fileStoreStub) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.files, id)
	return nil
}

func (f *fileStoreStub) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := f.files[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

func (f *fileStoreStub) ListUnreferencedBefore(ctx context.Context, cutoff time.Time) ([]models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]models.File, 0)
	for _, id := range f.order {
		if file, ok := f.files[id]; ok && file.UploadDate.Before(cutoff) {
			result = append(result, *file)
		}
	}
	return result, nil
}

type blobStoreStub struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	meta      map[string]storage.BlobMeta
	uploaded  map[string]time.Time
	putErr    error
	deleteErr error
	deletes   []string
}

func newBlobStoreStub() *blobStoreStub {
	return &blobStoreStub{
		blobs:    make(map[string][]byte),
		meta:     make(map[string]storage.BlobMeta),
		uploaded: make(map[string]time.Time),
	}
}

func (b *blobStoreStub) Put(ctx context.Context, key string, r io.Reader, size int64, meta storage.BlobMeta) error {
	if b.putErr != nil {
		return b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = data
	b.meta[key] = meta
	b.uploaded[key] = time.Now()
	return nil
}

func (b *blobStoreStub) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[key]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *blobStoreStub) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, key)
	if b.deleteErr != nil {
		return b.deleteErr
	}
	if _, ok := b.blobs[key]; !ok {
		return storage.ErrBlobNotFound
	}
	delete(b.blobs, key)
	return nil
}

func (b *blobStoreStub) List(ctx context.Context) ([]storage.BlobInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]storage.BlobInfo, 0, len(b.blobs))
	for key, data := range b.blobs {
		result = append(result, storage.BlobInfo{Key: key, Size: int64(len(data)), UploadedAt: b.uploaded[key]})
	}
	return result, nil
}

type gateStub struct {
	store storage.BlobStore
}

func (g *gateStub) Store() (storage.BlobStore, error) {
	if g.store == nil {
		return nil, appErrors.ErrStoreNotReady
	}
	return g.store, nil
}

type orphanRecorder struct {
	mu      sync.Mutex
	reports []string
}

func (o *orphanRecorder) ReportOrphan(fileID, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reports = append(o.reports, fileID)
}

type conversationStoreStub struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	turns         map[string][]models.Turn
	appendErr     error
	seq           int64
}

func newConversationStoreStub() *conversationStoreStub {
	return &conversationStoreStub{
		conversations: make(map[string]*models.Conversation),
		turns:         make(map[string][]models.Turn),
	}
}

func (c *conversationStoreStub) key(studentID, chapterID string) string {
	return studentID + "|" + chapterID
}

func (c *conversationStoreStub) FindByStudentAndChapter(ctx context.Context, studentID, chapterID string) (*models.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conversation, ok := c.conversations[c.key(studentID, chapterID)]; ok {
		copy := *conversation
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (c *conversationStoreStub) GetOrCreate(ctx context.Context, studentID, chapterID string) (*models.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.key(studentID, chapterID)
	conversation, ok := c.conversations[k]
	if !ok {
		conversation = &models.Conversation{
			ID:        fmt.Sprintf("conversation-%d", len(c.conversations)+1),
			StudentID: studentID,
			ChapterID: chapterID,
			CreatedAt: time.Now(),
		}
		c.conversations[k] = conversation
	}
	copy := *conversation
	return &copy, nil
}

func (c *conversationStoreStub) AppendTurn(ctx context.Context, turn *models.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.appendErr != nil {
		return c.appendErr
	}
	c.seq++
	turn.Seq = c.seq
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	c.turns[turn.ConversationID] = append(c.turns[turn.ConversationID], *turn)
	return nil
}

func (c *conversationStoreStub) ListTurns(ctx context.Context, conversationID string) ([]models.Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Turn{}, c.turns[conversationID]...), nil
}

type inferenceStub struct {
	mu       sync.Mutex
	answer   string
	err      error
	block    bool
	calls    int
	question string
	fileID   string
}

func (i *inferenceStub) Ask(ctx context.Context, question, fileID string) (string, error) {
	i.mu.Lock()
	i.calls++
	i.question = question
	i.fileID = fileID
	i.mu.Unlock()
	if i.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if i.err != nil {
		return "", i.err
	}
	return i.answer, nil
}

var errStub = errors.New("stub failure")

package services

import (
	"context"
	"mime/multipart"
	"testing"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type memTherapistStore struct {
	*memTherapists
}

func (m memTherapistStore) Create(ctx context.Context, t *models.Therapist) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	m.byID[t.ID] = t
	return nil
}

func (m memTherapistStore) List(ctx context.Context, activeOnly bool) ([]models.Therapist, error) {
	var out []models.Therapist
	for _, t := range m.byID {
		if !activeOnly || t.IsActive() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m memTherapistStore) Update(ctx context.Context, t *models.Therapist) error {
	if _, ok := m.byID[t.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	m.byID[t.ID] = t
	return nil
}

func (m memTherapistStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := m.byID[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.byID, id)
	return nil
}

type stubUploader struct {
	url    string
	folder string
}

func (u *stubUploader) UploadFileFromHeader(ctx context.Context, fh *multipart.FileHeader, folder string) (string, error) {
	u.folder = folder
	return u.url, nil
}

func TestTherapistCreateDefaultsAndLinking(t *testing.T) {
	users := newMemUsers()
	therapistUser := &models.User{Role: models.RoleTherapist, Email: "dr@example.com"}
	clientUser := &models.User{Role: models.RoleClient, Email: "c@example.com"}
	require.NoError(t, users.Create(context.Background(), therapistUser))
	require.NoError(t, users.Create(context.Background(), clientUser))

	cache := newMemCache()
	up := &stubUploader{url: "https://cdn.example.com/p.jpg"}
	svc := NewTherapistService(memTherapistStore{newMemTherapists()}, users, up, cache)
	svc.now = clockAt(fixedNow)

	th, err := svc.Create(context.Background(), TherapistInput{
		Name: " Dr. Mehta ", Specialization: "CBT", Languages: "English, Hindi, ,Tamil", Price: 800,
		UserID: therapistUser.ID.Hex(),
	}, &multipart.FileHeader{Filename: "p.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Mehta", th.Name)
	assert.Equal(t, models.TherapistActive, th.Status)
	assert.Equal(t, []string{"English", "Hindi", "Tamil"}, th.Languages)
	assert.Equal(t, "https://cdn.example.com/p.jpg", th.Photo)
	assert.Equal(t, TherapistPhotoFolder, up.folder)
	require.NotNil(t, th.UserID)
	assert.Equal(t, therapistUser.ID, *th.UserID)
	assert.Equal(t, fixedNow, th.CreatedAt)
	assert.Equal(t, 1, cache.deletes)

	_, err = svc.Create(context.Background(), TherapistInput{Name: "X", Specialization: "Y", UserID: clientUser.ID.Hex()}, nil)
	var vErr *utils.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "user_id", vErr.Field)

	_, err = svc.Create(context.Background(), TherapistInput{Name: "X"}, nil)
	require.ErrorAs(t, err, &vErr)
}

func TestTherapistPhotoRequiresUploader(t *testing.T) {
	svc := NewTherapistService(memTherapistStore{newMemTherapists()}, newMemUsers(), nil, nil)
	_, err := svc.Create(context.Background(), TherapistInput{Name: "X", Specialization: "Y"}, &multipart.FileHeader{})
	var vErr *utils.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "photo", vErr.Field)
}

func TestTherapistUpdateKeepsPhotoAndListsActive(t *testing.T) {
	existing := &models.Therapist{ID: primitive.NewObjectID(), Name: "Old", Photo: "keep.jpg", Status: models.TherapistActive}
	store := memTherapistStore{newMemTherapists(existing)}
	svc := NewTherapistService(store, newMemUsers(), nil, nil)

	th, err := svc.Update(context.Background(), existing.ID.Hex(), TherapistInput{Name: "New", Specialization: "DBT", Status: "inactive"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "New", th.Name)
	assert.Equal(t, "keep.jpg", th.Photo)
	assert.Equal(t, models.TherapistInactive, th.Status)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Delete(context.Background(), existing.ID.Hex()))
	assert.ErrorIs(t, svc.Delete(context.Background(), existing.ID.Hex()), ErrTherapistNotFound)
	_, err = svc.Get(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, ErrTherapistNotFound)
}

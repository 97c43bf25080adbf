package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/repository/memory"

	"go.uber.org/zap"
)

// fakeStorage keeps objects in memory and hands out fake presigned URLs.
type fakeStorage struct {
	objects   map[string]string
	deleteErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]string{}}
}

func (f *fakeStorage) PutObject(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = string(data)
	return nil
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://bucket.example.com/put/" + key, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.example.com/get/" + key, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

func TestCreateExerciseWithImage(t *testing.T) {
	ctx := context.Background()
	items := memory.NewStore().Repositories().Items
	blobs := newFakeStorage()
	svc := NewExerciseService(items, blobs, zap.NewNop())

	ex, err := svc.CreateExercise(ctx, NewExercise{
		Title:  " Plank ",
		Points: 20,
		Image:  &Image{Filename: "plank.PNG", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")},
	})
	if err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}
	if ex.Title != "Plank" || ex.Points != 20 {
		t.Errorf("exercise = %+v", ex)
	}
	if !strings.HasPrefix(ex.ImageKey, "exercises/") || !strings.HasSuffix(ex.ImageKey, ".png") {
		t.Errorf("ImageKey = %q, want exercises/<uuid>.png", ex.ImageKey)
	}
	if blobs.objects[ex.ImageKey] != "png" {
		t.Errorf("stored object = %q, want uploaded body", blobs.objects[ex.ImageKey])
	}

	list, err := svc.ListExercises(ctx)
	if err != nil {
		t.Fatalf("ListExercises: %v", err)
	}
	if len(list) != 1 || list[0].ImageURL != "https://bucket.example.com/get/"+ex.ImageKey {
		t.Errorf("ListExercises = %+v, want one exercise with a presigned URL", list)
	}

	if err := svc.DeleteExercise(ctx, ex.ID); err != nil {
		t.Fatalf("DeleteExercise: %v", err)
	}
	if len(blobs.objects) != 0 {
		t.Errorf("objects after delete = %v, want none", blobs.objects)
	}
	wantErr(t, svc.DeleteExercise(ctx, ex.ID), apperr.ItemNotFound)
}

func TestDeleteExerciseToleratesBlobFailure(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeStorage()
	blobs.deleteErr = errors.New("bucket gone")
	svc := NewExerciseService(memory.NewStore().Repositories().Items, blobs, zap.NewNop())

	ex, err := svc.CreateExercise(ctx, NewExercise{Title: "Squat", Points: 5, Image: &Image{Filename: "s.jpg", Body: strings.NewReader("x")}})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteExercise(ctx, ex.ID); err != nil {
		t.Errorf("DeleteExercise = %v, want nil despite storage failure", err)
	}
}

func TestImageUploadURL(t *testing.T) {
	ctx := context.Background()
	svc := NewExerciseService(memory.NewStore().Repositories().Items, newFakeStorage(), zap.NewNop())

	target, err := svc.ImageUploadURL(ctx, "image/jpeg", "photo.jpg")
	if err != nil {
		t.Fatalf("ImageUploadURL: %v", err)
	}
	if target.URL != "https://bucket.example.com/put/"+target.ObjectKey {
		t.Errorf("target = %+v", target)
	}

	ex, err := svc.CreateExercise(ctx, NewExercise{Title: "Lunge", Points: 10, ImageKey: target.ObjectKey})
	if err != nil {
		t.Fatalf("CreateExercise with uploaded key: %v", err)
	}
	if ex.ImageKey != target.ObjectKey {
		t.Errorf("ImageKey = %q, want %q", ex.ImageKey, target.ObjectKey)
	}

	_, err = svc.ImageUploadURL(ctx, "application/pdf", "doc.pdf")
	wantErr(t, err, apperr.InvalidInput)
}

func TestExerciseValidation(t *testing.T) {
	ctx := context.Background()
	items := memory.NewStore().Repositories().Items
	svc := NewExerciseService(items, nil, zap.NewNop())

	tests := []struct {
		name string
		in   NewExercise
		want error
	}{
		{"zero points", NewExercise{Title: "x"}, apperr.InvalidAmount},
		{"no title or description", NewExercise{Points: 5}, apperr.InvalidInput},
		{"foreign image key", NewExercise{Title: "x", Points: 5, ImageKey: "avatars/a.png"}, apperr.InvalidInput},
		{"image without storage", NewExercise{Title: "x", Points: 5, Image: &Image{Body: strings.NewReader("")}}, apperr.StorageUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateExercise(ctx, tt.in)
			wantErr(t, err, tt.want)
		})
	}

	_, err := svc.ImageUploadURL(ctx, "image/png", "a.png")
	wantErr(t, err, apperr.StorageUnavailable)

	// Without storage, exercises without images still work.
	if _, err := svc.CreateExercise(ctx, NewExercise{Description: "Wall sit", Points: 5}); err != nil {
		t.Errorf("CreateExercise without image: %v", err)
	}
}

package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
)

type fakeBucketAPI struct {
	existsErrs []error
	exists     bool
	calls      int
	made       int
}

func (f *fakeBucketAPI) BucketExists(context.Context, string) (bool, error) {
	f.calls++
	if len(f.existsErrs) > 0 {
		err := f.existsErrs[0]
		f.existsErrs = f.existsErrs[1:]
		if err != nil {
			return false, err
		}
	}
	return f.exists, nil
}

func (f *fakeBucketAPI) MakeBucket(context.Context, string, minio.MakeBucketOptions) error {
	f.made++
	f.exists = true
	return nil
}

func TestMinioHost_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("一時的な失敗の後は再確認する", func(t *testing.T) {
		api := &fakeBucketAPI{existsErrs: []error{errors.New("connection reset")}, exists: true}
		h := &MinioHost{bucketAPI: api, bucket: "frames"}

		if err := h.ensureBucket(ctx); err == nil {
			t.Fatal("最初の確認はエラーになるはずです")
		}
		if err := h.ensureBucket(ctx); err != nil {
			t.Fatalf("再確認で成功するはずです: %v", err)
		}
		if err := h.ensureBucket(ctx); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if api.calls != 2 {
			t.Errorf("成功後は確認しないはずです: %d 回", api.calls)
		}
	})

	t.Run("バケットがなければ作成する", func(t *testing.T) {
		api := &fakeBucketAPI{}
		h := &MinioHost{bucketAPI: api, bucket: "frames"}
		if err := h.ensureBucket(ctx); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if api.made != 1 {
			t.Errorf("バケットが1回作成されるはずです: %d", api.made)
		}
	})
}

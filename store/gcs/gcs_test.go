package gcs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"testing"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/bobg/wayback/testutil"
)

func TestObjName(t *testing.T) {
	cases := []string{"", "a", "testutil-delta/with/slashes", "está"}
	for _, name := range cases {
		got, err := nameFromObjName(objName(name))
		if err != nil {
			t.Fatal(err)
		}
		if got != name {
			t.Errorf("got %q, want %q", got, name)
		}
	}

	// Order is preserved.
	if !(objName("ab") < objName("b")) || !(objName("a") < objName("ab")) {
		t.Error("object names out of order")
	}
}

const (
	credsVar = "WAYBACK_GCS_TESTING_CREDS"
	projVar  = "WAYBACK_GCS_TESTING_PROJECT"
)

func TestStore(t *testing.T) {
	var (
		creds     = os.Getenv(credsVar)
		projectID = os.Getenv(projVar)
	)
	if creds == "" || projectID == "" {
		t.Skipf("to run TestStore, set %s to the name of a credentials file and %s to a project ID", credsVar, projVar)
	}

	var r [30]byte
	_, err := rand.Read(r[:])
	if err != nil {
		t.Fatal(err)
	}
	bucketName := hex.EncodeToString(r[:])

	ctx := context.Background()

	client, err := storage.NewClient(ctx, option.WithCredentialsFile(creds))
	if err != nil {
		t.Fatal(err)
	}

	t.Logf("creating bucket %s in project %s", bucketName, projectID)

	bucket := client.Bucket(bucketName)
	err = bucket.Create(ctx, projectID, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer bucket.Delete(ctx)

	s := New(bucket)
	testutil.Histories(ctx, t, s)

	// The bucket must be empty before it can be deleted.
	err = s.List(ctx, "", func(name string) error {
		return s.Delete(ctx, name)
	})
	if err != nil {
		t.Fatal(err)
	}
}

package bucket

import "testing"

func TestBucketLabel(t *testing.T) {
	tests := []struct {
		bucket Bucket
		want   string
	}{
		{Buckets.Pending, "Pending"},
		{Buckets.InProcess, "In Process"},
		{Buckets.Completed, "Completed"},
	}

	for _, tt := range tests {
		t.Run(tt.bucket.Code(), func(t *testing.T) {
			if got := tt.bucket.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestByName(t *testing.T) {
	if b := ByName("in_process"); b == nil || *b != Buckets.InProcess {
		t.Errorf("ByName(in_process) = %v, want %v", b, Buckets.InProcess)
	}
	if b := ByName("archived"); b != nil {
		t.Errorf("ByName(archived) = %v, want nil", b)
	}
}

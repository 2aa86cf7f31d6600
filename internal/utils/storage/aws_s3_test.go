package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublicLinkRoundTrip(t *testing.T) {
	s := &awsS3{bucket: "wasteguard-images", region: "ap-southeast-1"}

	link := s.GetPublicLinkKey("user-1/1718000000000.jpg")
	require.Equal(t, "https://wasteguard-images.s3.ap-southeast-1.amazonaws.com/user-1/1718000000000.jpg", link)
	require.Equal(t, "user-1/1718000000000.jpg", s.GetObjectKeyFromLink(link))
}

func TestGetObjectKeyFromLinkForeignURL(t *testing.T) {
	s := &awsS3{bucket: "wasteguard-images", region: "ap-southeast-1"}

	tests := []string{
		"https://example.com/image.jpg",
		"https://other-bucket.s3.ap-southeast-1.amazonaws.com/key.jpg",
		"https://wasteguard-images.s3.us-east-1.amazonaws.com/key.jpg",
		"",
	}
	for _, link := range tests {
		require.Empty(t, s.GetObjectKeyFromLink(link), link)
	}
}

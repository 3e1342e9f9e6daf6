package services

import (
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/AmanSingh2427/Chat-app/config"
	"github.com/AmanSingh2427/Chat-app/db"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

// MediaService handles avatar uploads. Images are thumbnailed and kept
// on local disk under the configured upload directory, which the server
// serves statically.
type MediaService interface {
	StoreAvatar(userID uint, fileHeader *multipart.FileHeader) (string, error)
}

type mediaService struct {
	Config   *config.Config
	authRepo db.AuthRepository
}

func NewMediaService(authRepo db.AuthRepository, conf *config.Config) MediaService {
	return &mediaService{
		Config:   conf,
		authRepo: authRepo,
	}
}

func (s *mediaService) StoreAvatar(userID uint, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("Error opening avatar file: %v", err)
		return "", fmt.Errorf("error opening avatar file: %v", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		log.Printf("Error decoding avatar image: %v", err)
		return "", fmt.Errorf("error decoding avatar image: %v", err)
	}

	// Square-crop for the directory list, then scale down to 200px wide.
	cropped := imaging.Fill(img, 400, 400, imaging.Center, imaging.Lanczos)
	thumbnail := resize.Resize(200, 0, cropped, resize.Lanczos3)

	filename := generateUniqueFilename(".jpg")
	destPath := filepath.Join(s.Config.UploadDir, filename)

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", fmt.Errorf("error creating upload folder: %v", err)
	}

	outFile, err := os.Create(destPath)
	if err != nil {
		log.Printf("Error creating avatar file: %v", err)
		return "", fmt.Errorf("error creating avatar file: %v", err)
	}
	defer outFile.Close()

	if err := jpeg.Encode(outFile, thumbnail, nil); err != nil {
		log.Printf("Error encoding avatar to JPEG: %v", err)
		return "", fmt.Errorf("error encoding avatar to JPEG: %v", err)
	}

	if err := s.authRepo.UpsertUserImage(userID, filename); err != nil {
		return "", err
	}

	return filename, nil
}

func generateUniqueFilename(ext string) string {
	return uuid.New().String() + ext
}

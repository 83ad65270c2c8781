package http

import (
	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
	"github.com/aussiebroadwan/filekeep/pkg/filekeepsdk"
)

func identityResponse(i domain.Identity) filekeepsdk.IdentityResponse {
	return filekeepsdk.IdentityResponse{
		ID:                i.ID,
		Email:             i.Email,
		Username:          i.Username,
		Active:            i.Active,
		Admin:             i.Admin,
		EmailVerified:     i.EmailVerified,
		StorageQuotaBytes: i.StorageQuotaBytes,
		UsedStorageBytes:  i.UsedStorageBytes,
		CreatedAt:         i.CreatedAt,
		LastLoginAt:       i.LastLoginAt,
	}
}

func fileResponse(f domain.FileRecord) filekeepsdk.FileResponse {
	return filekeepsdk.FileResponse{
		ID:           f.ID,
		Name:         f.StoredName,
		OriginalName: f.OriginalName,
		SizeBytes:    f.SizeBytes,
		ContentType:  f.ContentType,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

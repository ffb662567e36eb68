// Package storage uploads user images and returns URLs clients can fetch.
//
// Two backends implement BlobStore:
//
//   - GCSStore writes to a Firebase Storage (Google Cloud Storage) bucket and
//     returns a tokenised firebasestorage.googleapis.com download URL.
//   - S3Store writes to any S3 compatible bucket (AWS, MinIO) and returns a
//     presigned GET URL.
//
// Images arrive from clients as data URLs. DecodeDataURL turns them into an
// Object; ObjectPath builds the conventional object names:
//
//	obj, err := storage.DecodeDataURL(req.Image, maxBytes)
//	obj.Path = storage.ObjectPath(storage.PrefixPalm, userID, time.Now())
//	url, err := store.Upload(ctx, obj)
package storage

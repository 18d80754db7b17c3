package storage

import "basic-cleaning/models"

// DatasetReader loads a dataset from a local file.
type DatasetReader interface {
	Read(path string) (*models.Dataset, error)
}

// DatasetWriter persists a dataset to a local file.
type DatasetWriter interface {
	Write(path string, ds *models.Dataset) error
}

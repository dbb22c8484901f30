// Package constants provides shared constants for the hebrew-calendar application
package constants

const (
	// AppIdentifier marks calendar events created by this application
	AppIdentifier = "Hebrew Calendar"

	// IntegrityField is the top-level dataset field holding the producer's MD5 digest
	IntegrityField = "md5"

	// DateLayout is the ISO calendar-date layout used for dataset keys and API paths
	DateLayout = "2006-01-02"

	// MonthLayout is the layout accepted by month queries
	MonthLayout = "2006-01"

	// DefaultDatasetName is the resource name the dataset is published under
	DefaultDatasetName = "calendar_data.json"
)

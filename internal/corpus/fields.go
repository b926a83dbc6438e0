package corpus

// Index field names.
const (
	FieldID            = "id"
	FieldText          = "text"
	FieldTitle         = "title"
	FieldDate          = "date"
	FieldLength        = "length"
	FieldLanguage      = "language"
	FieldCluster       = "cluster"
	FieldCorpus        = "corpus"
	FieldLatitude      = "latitude"
	FieldLongitude     = "longitude"
	FieldVisualization = "visualization"
	FieldTextData      = "textData"
)

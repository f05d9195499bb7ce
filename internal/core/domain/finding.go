// internal/core/domain/finding.go
package domain

import "fmt"

// FindingKind identifica el tipo de artefacto escrito al result sink.
// El engine no interpreta su semántica.
type FindingKind string

const (
	FindingKindMetadataExif FindingKind = "TSK_METADATA_EXIF"
	FindingKindWebBookmark  FindingKind = "TSK_WEB_BOOKMARK"
	FindingKindWebCookie    FindingKind = "TSK_WEB_COOKIE"
	FindingKindWebHistory   FindingKind = "TSK_WEB_HISTORY"
	FindingKindRecentObject FindingKind = "TSK_RECENT_OBJECT"
)

// String retorna la representación string del kind.
func (k FindingKind) String() string {
	return string(k)
}

// AttributeType identifica el tipo de un atributo de finding.
type AttributeType int

const (
	AttrURL AttributeType = iota + 1
	AttrTitle
	AttrDomain
	AttrProgramName
	AttrDateTime
	AttrDateTimeCreated
	AttrGeoLatitude
	AttrGeoLongitude
	AttrGeoAltitude
	AttrDeviceMake
	AttrDeviceModel
	AttrPath
	AttrName
	AttrValue
)

var attributeNames = map[AttributeType]string{
	AttrURL:             "TSK_URL",
	AttrTitle:           "TSK_TITLE",
	AttrDomain:          "TSK_DOMAIN",
	AttrProgramName:     "TSK_PROG_NAME",
	AttrDateTime:        "TSK_DATETIME",
	AttrDateTimeCreated: "TSK_DATETIME_CREATED",
	AttrGeoLatitude:     "TSK_GEO_LATITUDE",
	AttrGeoLongitude:    "TSK_GEO_LONGITUDE",
	AttrGeoAltitude:     "TSK_GEO_ALTITUDE",
	AttrDeviceMake:      "TSK_DEVICE_MAKE",
	AttrDeviceModel:     "TSK_DEVICE_MODEL",
	AttrPath:            "TSK_PATH",
	AttrName:            "TSK_NAME",
	AttrValue:           "TSK_VALUE",
}

// String retorna el nombre del tipo de atributo.
func (t AttributeType) String() string {
	if name, ok := attributeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ATTR_%d", int(t))
}

// Attribute es un valor tipado adjunto a un finding: {typeId, source, value}.
// Value es string, int64 o float64.
type Attribute struct {
	Type   AttributeType
	Source string
	Value  any
}

// NewAttribute crea un atributo.
func NewAttribute(typ AttributeType, source string, value any) Attribute {
	return Attribute{Type: typ, Source: source, Value: value}
}

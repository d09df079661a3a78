package converter

import (
	"strings"

	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/vrm"
)

const defaultAuthor = "Unknown"

func convertMeta(m *scene.Meta, rootName string, textures *textureExporter) vrm.Meta {
	meta := vrm.Meta{
		Name:             rootName,
		Authors:          []string{defaultAuthor},
		LicenseURL:       vrm.DefaultLicenseURL,
		AvatarPermission: vrm.AvatarPermissionOnlyAuthor,
		CommercialUsage:  vrm.CommercialUsagePersonalNonProfit,
		CreditNotation:   vrm.CreditNotationRequired,
		Modification:     vrm.ModificationProhibited,
	}
	if m == nil {
		return meta
	}
	if name := strings.TrimSpace(m.Name); name != "" {
		meta.Name = name
	}
	var authors []string
	for _, a := range m.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	if len(authors) > 0 {
		meta.Authors = authors
	}
	if m.LicenseURL != "" {
		meta.LicenseURL = m.LicenseURL
	}
	meta.Version = m.Version
	meta.CopyrightInformation = m.Copyright
	meta.ContactInformation = m.Contact
	meta.References = m.References
	meta.ThirdPartyLicenses = m.ThirdPartyLicenses
	meta.OtherLicenseURL = m.OtherLicenseURL

	if m.AvatarPermission != "" {
		meta.AvatarPermission = vrm.AvatarPermission(m.AvatarPermission)
	}
	if m.CommercialUsage != "" {
		meta.CommercialUsage = vrm.CommercialUsage(m.CommercialUsage)
	}
	if m.CreditNotation != "" {
		meta.CreditNotation = vrm.CreditNotation(m.CreditNotation)
	}
	if m.Modification != "" {
		meta.Modification = vrm.Modification(m.Modification)
	}
	meta.AllowRedistribution = m.AllowRedistribution
	meta.AllowExcessivelyViolentUsage = m.AllowExcessivelyViolentUsage
	meta.AllowExcessivelySexualUsage = m.AllowExcessivelySexualUsage
	meta.AllowPoliticalOrReligiousUsage = m.AllowPoliticalOrReligiousUsage
	meta.AllowAntisocialOrHateUsage = m.AllowAntisocialOrHateUsage

	if m.Thumbnail != nil && textures != nil {
		if img, ok := textures.Image(m.Thumbnail); ok {
			meta.ThumbnailImage = &img
		}
	}
	return meta
}

// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package datasets

import (
	"strings"

	"github.com/molecula/disclosure"
)

// ArticleRefs are the identifiers of a scholarly article.
type ArticleRefs struct {
	PMID  string
	PMCID string
	DOI   string
}

func (r ArticleRefs) normalized() ArticleRefs {
	pmid := strings.TrimSpace(r.PMID)
	pmc := strings.ToUpper(strings.TrimSpace(r.PMCID))
	if pmc != "" && !strings.HasPrefix(pmc, "PMC") {
		pmc = "PMC" + pmc
	}
	doi := strings.ToLower(strings.TrimSpace(r.DOI))
	for _, p := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, p)
	}
	return ArticleRefs{PMID: pmid, PMCID: pmc, DOI: doi}
}

// ArticleID returns the id of the article with the given identifiers. The
// PubMed id is preferred, then the PubMed Central id, then the DOI, so
// that tables carrying different subsets agree as far as they overlap.
func ArticleID(refs ArticleRefs) (string, bool) {
	refs = refs.normalized()
	switch {
	case refs.PMID != "":
		return disclosure.MakeID("article", disclosure.Token("pmid:"+refs.PMID))
	case refs.PMCID != "":
		return disclosure.MakeID("article", disclosure.Token("pmc:"+refs.PMCID))
	case refs.DOI != "":
		return disclosure.MakeID("article", disclosure.Token("doi:"+refs.DOI))
	}
	return "", false
}

// MakeArticle returns the article with the given identifiers, unresolved
// when it has none.
func MakeArticle(refs ArticleRefs) *disclosure.Entity {
	id, _ := ArticleID(refs)
	refs = refs.normalized()
	a := disclosure.NewEntity(disclosure.Article, id)
	a.Add("pmid", refs.PMID)
	a.Add("pmcId", refs.PMCID)
	a.Add("doi", refs.DOI)
	return a
}

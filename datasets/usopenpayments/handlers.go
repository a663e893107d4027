// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package usopenpayments

import (
	"context"
	"fmt"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/fingerprint"
)

// MaxInvestigators is the number of principal investigator column groups
// of a research payment.
const MaxInvestigators = 5

// HandleGeneral emits a general payment: the paying company, the
// recipient and the payment between them.
func HandleGeneral(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error {
	company := makeCompany(row)
	recipient, err := makeRecipient(row)
	if err != nil {
		return err
	}
	out := []*disclosure.Entity{company}
	out = append(out, recipient.entities()...)
	out = append(out, payment(row, company, recipient.Entity, nil))
	return em.EmitAll(ctx, out...)
}

// HandleResearch emits a research payment. Besides the company, the
// recipient and the payment, it emits the study funded, its principal
// investigators and everyone's participation in it.
func HandleResearch(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error {
	company := makeCompany(row)
	recipient, err := makeRecipient(row)
	if err != nil {
		return err
	}
	project := makeProject(row)

	parties := []*disclosure.Entity{company}
	var edges []*disclosure.Entity
	if recipient.Entity != nil {
		recipient.Add("summary", primaryTypes(row)...)
		project.Add("country", recipient.Countries()...)
		parties = append(parties, recipient.entities()...)
	}
	for i := 1; i <= MaxInvestigators; i++ {
		sub := row.Sub(fmt.Sprintf("Principal_Investigator_%d_", i), "Recipient_")
		if sub.Len() == 0 {
			continue
		}
		inv := makePerson(sub)
		if !inv.Resolved() {
			continue
		}
		inv.Add("summary", primaryTypes(sub)...)
		project.Add("country", inv.Countries()...)
		parties = append(parties, inv.entities()...)
		edges = append(edges, participation(row, project, inv.Entity, "Principal investigator"))
	}
	edges = append(edges,
		participation(row, project, company, "Financier"),
		participation(row, project, recipient.Entity, ""),
		payment(row, company, recipient.Entity, project),
	)

	if err := em.EmitAll(ctx, parties...); err != nil {
		return err
	}
	if err := em.Emit(ctx, project); err != nil {
		return err
	}
	return em.EmitAll(ctx, edges...)
}

// HandleOwnership emits an ownership or investment interest of a
// physician in a company.
func HandleOwnership(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error {
	owner := makePerson(row)
	asset := makeCompany(row)
	own := disclosure.Link(disclosure.Ownership, []disclosure.Endpoint{
		disclosure.Required("owner", idOf(owner.Entity)),
		disclosure.Required("asset", idOf(asset)),
	}, disclosure.Token(row.String("Record_ID")))
	if own != nil {
		own.Add("recordId", row.String("Record_ID"))
		own.Add("date", row.String("Program_Year"))
		own.Add("ownershipType", row.String("Terms_of_Interest"))
		own.Add("role", row.String("Interest_Held_by_Physician_or_an_Immediate_Family_Member"))
		invested := row.String("Total_Amount_Invested_USDollars")
		value := row.String("Value_of_Interest")
		own.Add("sharesValue", invested, value)
		if invested != "" || value != "" {
			own.Add("sharesCurrency", "USD")
		}
	}
	out := append(owner.entities(), asset, own)
	return em.EmitAll(ctx, out...)
}

// HandleProfile emits a physician of the profile supplement, linked to
// the profiles the registry associates with it. Associated profiles are
// referenced by their registry id.
func HandleProfile(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error {
	person := makePerson(row)
	if !person.Resolved() {
		return em.Emit(ctx, person.Entity)
	}
	person.Add("summary", primaryTypes(row)...)
	out := person.entities()
	for _, col := range []string{
		"Associated_Covered_Recipient_Profile_ID_1",
		"Associated_Covered_Recipient_Profile_ID_2",
	} {
		other := row.String(col)
		if other == "" {
			continue
		}
		link := disclosure.Link(disclosure.UnknownLink, []disclosure.Endpoint{
			disclosure.Required("subject", person.ID),
			disclosure.Required("object", other),
		})
		link.Add("role", "same as")
		link.Add("summary", "different profile associated with the same physician")
		out = append(out, link)
	}
	return em.EmitAll(ctx, out...)
}

// makeProject builds the study of a research payment, keyed by its
// ClinicalTrials.gov identifier or else by its name.
func makeProject(row disclosure.Row) *disclosure.Entity {
	p := disclosure.NewEntity(disclosure.Project, "")
	name := row.String("Name_of_Study")
	if fingerprint.IsEmpty(name) {
		return p
	}
	if ct := row.String("ClinicalTrials_Gov_Identifier"); ct != "" {
		p.ID, _ = disclosure.MakeID("project", disclosure.Token(ct))
	} else {
		p.ID, _ = disclosure.MakeID("project", disclosure.Text(name))
	}
	p.Add("name", name)
	p.Add("projectId", row.String("ClinicalTrials_Gov_Identifier"))
	p.Add("date", row.String("Program_Year"))
	p.Add("sourceUrl", row.String("Research_Information_Link"))
	p.Add("notes", row.String("Context_of_Research"))
	p.Add("description", descriptions(row))
	return p
}

func participation(row disclosure.Row, project, participant *disclosure.Entity, role string) *disclosure.Entity {
	rel := disclosure.Link(disclosure.ProjectParticipant, []disclosure.Endpoint{
		disclosure.Required("project", idOf(project)),
		disclosure.Required("participant", idOf(participant)),
	})
	if rel == nil {
		return nil
	}
	rel.Add("role", role)
	rel.Add("date", row.String("Program_Year"))
	rel.Add("sourceUrl", row.String("Research_Information_Link"))
	return rel
}

// payment links the paying company to the recipient, and to the study for
// research payments. The record id tells payments between the same
// parties apart.
func payment(row disclosure.Row, payer, beneficiary, project *disclosure.Entity) *disclosure.Entity {
	record := row.String("Record_ID")
	pay := disclosure.Link(disclosure.Payment, []disclosure.Endpoint{
		disclosure.Required("payer", idOf(payer)),
		disclosure.Optional("beneficiary", idOf(beneficiary)),
		disclosure.Optional("project", idOf(project)),
	}, disclosure.Token(record))
	if pay == nil {
		return nil
	}
	amount := row.String("Total_Amount_of_Payment_USDollars")
	pay.Add("recordId", record)
	pay.Add("amount", amount)
	pay.Add("amountUsd", amount)
	pay.Add("currency", "USD")
	pay.Add("date", row.First("Date_of_Payment", "Program_Year"))
	pay.Add("purpose", row.String("Form_of_Payment_or_Transfer_of_Value"))
	pay.Add("programme", row.String("Nature_of_Payment_or_Transfer_of_Value"))
	pay.Add("summary", row.String("Contextual_Information"))
	pay.Add("description", descriptions(row))
	return pay
}

// descriptionColumns hold the products and expenditure categories of a
// payment.
var descriptionColumns = func() []string {
	var out []string
	for i := 1; i <= 5; i++ {
		out = append(out,
			fmt.Sprintf("Covered_or_Noncovered_Indicator_%d", i),
			fmt.Sprintf("Indicate_Drug_or_Biological_or_Device_or_Medical_Supply_%d", i),
			fmt.Sprintf("Product_Category_or_Therapeutic_Area_%d", i),
			fmt.Sprintf("Name_of_Drug_or_Biological_or_Device_or_Medical_Supply_%d", i),
			fmt.Sprintf("Associated_Drug_or_Biological_NDC_%d", i))
	}
	for i := 1; i <= 6; i++ {
		out = append(out, fmt.Sprintf("Expenditure_Category%d", i))
	}
	return out
}()

func descriptions(row disclosure.Row) string {
	out := make([]string, 0, len(descriptionColumns))
	for _, c := range descriptionColumns {
		out = append(out, row.String(c))
	}
	return joinNonEmpty("\n\n", out...)
}

func idOf(e *disclosure.Entity) string {
	if !e.Resolved() {
		return ""
	}
	return e.ID
}

package core

import "fmt"

// instructionPrompt is the classification instruction sent to the generative
// service, with slots for the current email and the retrieved context.
const instructionPrompt = `You are an intelligent email risk classifier.
You receive the **current email** (body and optional headers) and a **retrieval-augmented context (RAG)** containing samples of this user's previous emails.

---

## Objective

Classify the email as one of:

* **benign** — expected or legitimate message
* **spam** — unsolicited or irrelevant marketing/bulk message
* **scam** — deceptive or malicious message attempting to obtain money, credentials, or sensitive information
* **suspicious** — signals of risk present, but insufficient evidence for clear classification

Provide a **short, evidence-based rationale** explaining why you chose that label.

---

## What the RAG contains

The RAG includes past messages, both legitimate and malicious, with metadata such as:

* sender name and address
* domain
* subject lines
* message snippets or short summaries
* timestamp
* (optional) known labels like *spam*, *scam*, or *benign*

You can conceptually use this information to:

* Identify whether this sender or domain has appeared before
* Check if similar wording, tone, or formatting matches known spam/scam patterns
* See if similar messages were legitimate in the past
* Detect unusual senders, domains, or topics compared to the user's historical communication

---

## Classification Heuristics

Consider:

* Sender identity and domain similarity to known contacts
* Lookalike domains or spoofing attempts
* Unusual reply-to addresses
* Urgent or threatening language
* Requests for payments, credentials, or MFA codes
* Suspicious attachments or links (e.g., shortened, IP-only, mismatched anchors)
* Thread hijacking or fake invoice/inquiry patterns
* DKIM/SPF/DMARC information if available
* Consistency with previous legitimate correspondence from the RAG

---

## Output Format

Return **only** a single JSON object in the following structure:

` + "```json" + `
{
  "classification": "benign | spam | scam | suspicious",
  "confidence": 0.0,
  "primary_reason": "≤40 words summarizing the decisive signals",
  "indicators": [
    "mismatched_sender",
    "lookalike_domain",
    "unknown_sender_no_history",
    "urgent_language",
    "payment_request",
    "credential_harvest",
    "attachment_risky",
    "link_shortener",
    "dkim_spf_dmarc_fail",
    "thread_hijack",
    "known_contact_match",
    "bulk_marketing_traits",
    "headers_missing",
    "rag_empty"
  ],
  "evidence": [
    {
      "source": "current_email",
      "quote": "short quote…"
    },
    {
      "source": "rag",
      "quote": "short quote or match summary…"
    }
  ],
  "parsed": {
    "sender_display": "…",
    "sender_email": "…",
    "from_domain": "…",
    "reply_to": "…",
    "links": ["list of extracted domains/URLs if any"],
    "attachments": ["names/extensions if any"],
    "headers_used": true
  },
  "recommended_action": "allow | quarantine | warn_user | block_sender | report_phishing"
}
` + "```" + `

---

## Inputs

` + "```" + `
CURRENT_EMAIL_BODY:
---
%s
---

RAG_CONTEXT:
---
%s
---
` + "```" + `

**Now:**
Use the email and relevant RAG context to infer risk, then output your classification and reasoning strictly in the JSON format above — no extra text or commentary.
`

// BuildPrompt formats the full classification prompt for one email.
func BuildPrompt(emailContent, ragContext string) string {
	return fmt.Sprintf(instructionPrompt, emailContent, ragContext)
}

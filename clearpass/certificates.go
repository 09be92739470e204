// clearpass/certificates.go
package clearpass

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

const certificateCollectionPath = "/api/certificate"

// Certificate is a user certificate issued by one of the appliance's CAs.
type Certificate struct {
	ID                int64  `json:"id"`
	CAID              int64  `json:"ca_id"`
	SubjectCommonName string `json:"subject_common_name"`
	SerialNumber      string `json:"serial_number,omitempty"`
	CertType          string `json:"cert_type,omitempty"`
	Revoked           bool   `json:"revoked,omitempty"`
}

type revokeRequest struct {
	CAID          int64 `json:"ca_id"`
	ConfirmRevoke bool  `json:"confirm_revoke"`
}

// ListCertificateIDs returns the ids of every certificate whose subject common name is identity.
func (c *Client) ListCertificateIDs(ctx context.Context, identity string) ([]int64, error) {
	certificates, err := c.GetCertificates(ctx, identity)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(certificates))
	for _, certificate := range certificates {
		ids = append(ids, certificate.ID)
	}
	return ids, nil
}

// GetCertificates returns the full certificate records whose subject common name is identity.
func (c *Client) GetCertificates(ctx context.Context, identity string) ([]Certificate, error) {
	var out collection[Certificate]
	if err := c.lookup(ctx, "certificate", certificateCollectionPath, "subject_common_name", identity, &out); err != nil {
		return nil, err
	}
	return out.Embedded.Items, nil
}

// RevokeCertificates sends one revoke POST per certificate id. Failure identifiers in
// the BatchResult are the decimal ids.
func (c *Client) RevokeCertificates(ctx context.Context, ids []int64, caID int64, confirm bool) (*BatchResult, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = strconv.FormatInt(id, 10)
	}

	body := revokeRequest{CAID: caID, ConfirmRevoke: confirm}

	return c.runBatch(ctx, "revoke_certificates", keys, func(ctx context.Context, id string) (int, error) {
		return c.doRequest(ctx, "revoke_certificate", http.MethodPost, fmt.Sprintf("%s/%s/revoke", certificateCollectionPath, id), body, nil)
	})
}

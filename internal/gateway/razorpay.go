package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Client est le client Razorpay injecté dans les handlers de paiement.
// Pas de variable globale : on le construit une fois dans main et on le
// passe explicitement, ce qui permet de le remplacer en test.
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

// APIError est renvoyée quand la passerelle répond autre chose qu'un 2xx.
// Aucune ligne de commande locale ne doit exister dans ce cas.
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("passerelle de paiement: statut %d: %s", e.StatusCode, e.Description)
}

// NewClient construit le client. baseURL vide = API Razorpay de production.
func NewClient(keyID, keySecret, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// KeyID retourne l'identifiant public à renvoyer au client web
func (c *Client) KeyID() string {
	return c.keyID
}

type orderRequest struct {
	Amount   int64  `json:"amount"` // unité mineure (paise)
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID string `json:"id"`
}

// CreateOrder ouvre une commande côté passerelle pour le montant donné en
// paise et retourne l'identifiant de commande passerelle.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error) {
	body, err := json.Marshal(orderRequest{
		Amount:   amountPaise,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("appel passerelle échoué: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{StatusCode: resp.StatusCode, Description: string(raw)}
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("réponse passerelle illisible: %w", err)
	}
	if out.ID == "" {
		return "", &APIError{StatusCode: resp.StatusCode, Description: "réponse sans identifiant de commande"}
	}

	return out.ID, nil
}

// VerifyPaymentSignature vérifie la signature du callback avec le secret du
// client. Calcul purement local, aucun appel réseau.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, c.keySecret)
}

package extract

import "errors"

// ErrNotConnected means the store is not a Shopify store or has no shop
// domain or access token on record yet. Extraction refuses to start and
// no job row is created; the OAuth flow has to finish first.
var ErrNotConnected = errors.New("extract: store is not connected to shopify")

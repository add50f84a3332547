// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyInternalError      = "common.internal_error"
	KeyServiceUnavailable = "common.service_unavailable"
	KeyRateLimitExceeded  = "common.rate_limit_exceeded"

	// Authentication
	KeyAuthRequired            = "auth.required"
	KeyAuthInvalidToken        = "auth.invalid_token"
	KeyAuthTokenExpired        = "auth.token_expired"
	KeyAuthInvalidCredentials  = "auth.invalid_credentials"
	KeyAuthUserExists          = "auth.user_exists"
	KeyAuthUsernameTaken       = "auth.username_taken"
	KeyAuthAccountInactive     = "auth.account_inactive"
	KeyAuthLoginSuccess        = "auth.login_success"
	KeyAuthLogoutSuccess       = "auth.logout_success"
	KeyAuthRegisterSuccess     = "auth.register_success"
	KeyAuthGoogleInvalidToken  = "auth.google_invalid_token"
	KeyAuthGoogleEmailMismatch = "auth.google_email_mismatch"
	KeyAuthGoogleRevoked       = "auth.google_revoked"
	KeyAuthGoogleRevokeFailed  = "auth.google_revoke_failed"
	KeyAuthIdentityUnavailable = "auth.identity_unavailable"

	// User Management
	KeyUserNotFound       = "user.not_found"
	KeyUserPhotoUploaded  = "user.photo_uploaded"
	KeyUserAccountDeleted = "user.account_deleted"

	// Catalog
	KeyBrandNotFound        = "brand.not_found"
	KeyProductNotFound      = "product.not_found"
	KeyProductPriceMismatch = "product.price_mismatch"
	KeyProductInvalidStock  = "product.invalid_stock_status"
	KeyCatalogInvalidLimit  = "catalog.invalid_limit"
	KeyCatalogInvalidOffset = "catalog.invalid_offset"
	KeyCatalogInvalidPrice  = "catalog.invalid_price"
	KeyCatalogInvalidRange  = "catalog.invalid_price_range"
	KeyCatalogInvalidSort   = "catalog.invalid_sort"
	KeyCatalogInvalidID     = "catalog.invalid_id"

	// Payments
	KeyPaymentSuccess            = "payment.success"
	KeyPaymentFailed             = "payment.failed"
	KeyPaymentNotFound           = "payment.not_found"
	KeyPaymentInvalidAmount      = "payment.invalid_amount"
	KeyPaymentInvalidCurrency    = "payment.invalid_currency"
	KeyPaymentUserNotFound       = "payment.user_not_found"
	KeyPaymentGatewayUnavailable = "payment.gateway_unavailable"
	KeyPaymentRefunded           = "payment.refunded"
	KeyPaymentPartiallyRefunded  = "payment.partially_refunded"
	KeyPaymentNotRefundable      = "payment.not_refundable"
	KeyPaymentRefundExceeds      = "payment.refund_exceeds_balance"
	KeyPaymentInvalidRefund      = "payment.invalid_refund_amount"
	KeyPaymentAccessDenied       = "payment.access_denied"

	// Authentication records
	KeyAuthenticationNotFound          = "authentication.not_found"
	KeyAuthenticationInvalidTransition = "authentication.invalid_transition"
	KeyAuthenticationResultRequired    = "authentication.result_required"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// File Upload
	KeyFileRequired     = "file.required"
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"
)

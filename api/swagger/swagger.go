package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LOB API",
        "description": "Identity, account and profile API for line-of-business web apps",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Identity",
            "description": "Sign-up, confirmation, sign-in and one-time tokens"
        },
        {
            "name": "User",
            "description": "Account of the signed in user"
        },
        {
            "name": "Attachment",
            "description": "Profile images"
        },
        {
            "name": "Statistics",
            "description": "Package and repository statistics"
        },
        {
            "name": "Payment",
            "description": "Pricing plans and simulated checkout"
        },
        {
            "name": "Navigation",
            "description": "Application menu"
        },
        {
            "name": "Operations",
            "description": "Health and metrics"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": [
                    "Operations"
                ],
                "summary": "Health check and metrics snapshot",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": [
                    "Operations"
                ],
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "503": {
                        "description": "Database unavailable",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": [
                    "Operations"
                ],
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/Identity/SignUp": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Register an account",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SignUpRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "409": {
                        "description": "Identifier already taken",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/SendConfirmEmailToken": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Send an email confirmation token",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SendEmailTokenRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "429": {
                        "description": "Token recently sent",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/ConfirmEmail": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Confirm an email address and sign in",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ConfirmEmailRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/SignInResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/SendConfirmPhoneToken": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Send a phone confirmation token",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SendPhoneTokenRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "429": {
                        "description": "Token recently sent",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/ConfirmPhone": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Confirm a phone number and sign in",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ConfirmPhoneRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/SignInResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/SendResetPasswordToken": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Send a password reset token",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SendResetPasswordTokenRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "429": {
                        "description": "Token recently sent",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/ResetPassword": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Reset the password with a token",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ResetPasswordRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/SignIn": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Sign in with a password or one-time code",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SignInRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/SignInResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "401": {
                        "description": "Invalid credentials",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "423": {
                        "description": "Account locked out",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/Refresh": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Refresh the token pair",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RefreshRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/TokenResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "401": {
                        "description": "Invalid refresh token",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/SendOtp": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Send a one-time sign-in code",
                "parameters": [
                    {
                        "name": "returnUrl",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/IdentityRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "429": {
                        "description": "Code recently sent",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/SendTwoFactorToken": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Send a two factor code",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SignInRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "429": {
                        "description": "Code recently sent",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/GetWebAuthnAssertionOptions": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Begin a passkey assertion",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/WebAuthnAssertionOptionsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/VerifyWebAuthAssertion": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Verify a passkey assertion",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/WebAuthnAssertionResult"
                        }
                    },
                    "401": {
                        "description": "Assertion rejected",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/VerifyWebAuthAndSignIn": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Sign in with a passkey",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/WebAuthnSignInRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/SignInResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "401": {
                        "description": "Assertion rejected",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/VerifyWebAuthAndSendTwoFactorToken": {
            "post": {
                "tags": [
                    "Identity"
                ],
                "summary": "Send a two factor code after a passkey assertion",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/WebAuthnSignInRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Identity/CloseBrowserPage": {
            "get": {
                "tags": [
                    "Identity"
                ],
                "summary": "Page that closes the browser tab",
                "produces": [
                    "text/html"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/User/GetCurrentUser": {
            "get": {
                "tags": [
                    "User"
                ],
                "summary": "Current user",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/UserResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/GetUserSessions": {
            "get": {
                "tags": [
                    "User"
                ],
                "summary": "Active sessions",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/UserSessionResponse"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/SignOut": {
            "post": {
                "tags": [
                    "User"
                ],
                "summary": "Sign out the current session",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/SendElevatedAccessToken": {
            "post": {
                "tags": [
                    "User"
                ],
                "summary": "Send an elevated access code",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "429": {
                        "description": "Code recently sent",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/DownloadPersonalData": {
            "get": {
                "tags": [
                    "User"
                ],
                "summary": "Personal data as CSV",
                "produces": [
                    "text/csv"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/ListWebAuthnCredentials": {
            "get": {
                "tags": [
                    "User"
                ],
                "summary": "Registered passkeys",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/WebAuthnCredentialResponse"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/SubscribePush": {
            "post": {
                "tags": [
                    "User"
                ],
                "summary": "Register a web push subscription",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PushSubscriptionRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/UnsubscribePush": {
            "post": {
                "tags": [
                    "User"
                ],
                "summary": "Remove a web push subscription",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UnsubscribePushRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/Update": {
            "put": {
                "tags": [
                    "User"
                ],
                "summary": "Edit the profile",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/EditUserRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/UserResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/RevokeSession/{id}": {
            "post": {
                "tags": [
                    "User"
                ],
                "summary": "Revoke a session",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "404": {
                        "description": "Session not found",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/ChangePassword": {
            "post": {
                "tags": [
                    "User"
                ],
                "summary": "Change the password",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ChangePasswordRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/GetWebAuthnCredentialOptions": {
            "get": {
                "tags": [
                    "User"
                ],
                "summary": "Begin passkey registration",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/CreateWebAuthnCredential": {
            "put": {
                "tags": [
                    "User"
                ],
                "summary": "Finish passkey registration",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/WebAuthnCredentialResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/DeleteWebAuthnCredential/{id}": {
            "delete": {
                "tags": [
                    "User"
                ],
                "summary": "Delete a passkey",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "404": {
                        "description": "Credential not found",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/DeleteAllWebAuthnCredentials": {
            "delete": {
                "tags": [
                    "User"
                ],
                "summary": "Delete all passkeys",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/TwoFactorAuth": {
            "post": {
                "tags": [
                    "User"
                ],
                "summary": "Manage two factor authentication",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/TwoFactorAuthRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/TwoFactorAuthResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/User/Delete": {
            "delete": {
                "tags": [
                    "User"
                ],
                "summary": "Delete the account",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Attachment/UploadProfileImage": {
            "post": {
                "tags": [
                    "Attachment"
                ],
                "summary": "Upload a profile image",
                "parameters": [
                    {
                        "name": "file",
                        "in": "formData",
                        "required": true,
                        "type": "file"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "413": {
                        "description": "File too large",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Attachment/RemoveProfileImage": {
            "delete": {
                "tags": [
                    "Attachment"
                ],
                "summary": "Remove the profile image",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Attachment/GetProfileImage/{userId}": {
            "get": {
                "tags": [
                    "Attachment"
                ],
                "summary": "Profile image",
                "parameters": [
                    {
                        "name": "userId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "produces": [
                    "image/png"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Statistics/GetNugetStats/{packageId}": {
            "get": {
                "tags": [
                    "Statistics"
                ],
                "summary": "NuGet package statistics",
                "parameters": [
                    {
                        "name": "packageId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/NugetStatsResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "404": {
                        "description": "Package not found",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "503": {
                        "description": "Upstream unavailable",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Statistics/GetGitHubStats": {
            "get": {
                "tags": [
                    "Statistics"
                ],
                "summary": "GitHub repository statistics",
                "parameters": [
                    {
                        "name": "repo",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/GitHubStatsResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "404": {
                        "description": "Repository not found",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "503": {
                        "description": "Upstream unavailable",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Payment/GetPlans": {
            "get": {
                "tags": [
                    "Payment"
                ],
                "summary": "Pricing plans",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/PricingPlan"
                            }
                        }
                    }
                }
            }
        },
        "/api/Payment/ResolvePlan/{number}": {
            "get": {
                "tags": [
                    "Payment"
                ],
                "summary": "Resolve a plan number",
                "parameters": [
                    {
                        "name": "number",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/PricingPlan"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Payment/ProcessPayment": {
            "post": {
                "tags": [
                    "Payment"
                ],
                "summary": "Process a simulated card payment",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ProcessPaymentRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/PaymentResult"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "422": {
                        "description": "Invalid card details",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Payment/GetReceipt": {
            "get": {
                "tags": [
                    "Payment"
                ],
                "summary": "Receipt PDF",
                "parameters": [
                    {
                        "name": "id",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "token",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    }
                ],
                "produces": [
                    "application/pdf"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "403": {
                        "description": "Invalid or expired link",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    },
                    "404": {
                        "description": "Receipt not found",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        },
        "/api/Navigation/GetItems": {
            "get": {
                "tags": [
                    "Navigation"
                ],
                "summary": "Navigation menu",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/NavigationItem"
                            }
                        }
                    }
                }
            }
        },
        "/api/Audit/GetLogs": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "tags": [
                    "Audit"
                ],
                "summary": "List audit entries",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Filter by user",
                        "name": "userId",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Filter by action",
                        "name": "action",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Page",
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Page size",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/AuditLogResponse"
                            }
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/Problem"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "AuditLogResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "userId": {
                    "type": "string"
                },
                "action": {
                    "type": "string"
                },
                "resource": {
                    "type": "string"
                },
                "details": {
                    "type": "object"
                },
                "ipAddress": {
                    "type": "string"
                },
                "userAgent": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                }
            }
        },
        "Problem": {
            "type": "object",
            "properties": {
                "type": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "detail": {
                    "type": "string"
                },
                "key": {
                    "type": "string"
                },
                "instance": {
                    "type": "string"
                },
                "traceId": {
                    "type": "string"
                },
                "errors": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "array",
                        "items": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "IdentityRequest": {
            "type": "object",
            "properties": {
                "userName": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "phoneNumber": {
                    "type": "string"
                }
            }
        },
        "SignUpRequest": {
            "type": "object",
            "properties": {
                "userName": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "phoneNumber": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "returnUrl": {
                    "type": "string"
                }
            }
        },
        "SendEmailTokenRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "returnUrl": {
                    "type": "string"
                }
            }
        },
        "ConfirmEmailRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "token": {
                    "type": "string"
                },
                "deviceInfo": {
                    "type": "string"
                }
            }
        },
        "SendPhoneTokenRequest": {
            "type": "object",
            "properties": {
                "phoneNumber": {
                    "type": "string"
                }
            }
        },
        "ConfirmPhoneRequest": {
            "type": "object",
            "properties": {
                "phoneNumber": {
                    "type": "string"
                },
                "token": {
                    "type": "string"
                },
                "deviceInfo": {
                    "type": "string"
                }
            }
        },
        "SendResetPasswordTokenRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "phoneNumber": {
                    "type": "string"
                },
                "returnUrl": {
                    "type": "string"
                }
            }
        },
        "ResetPasswordRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "phoneNumber": {
                    "type": "string"
                },
                "token": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "SignInRequest": {
            "type": "object",
            "properties": {
                "userName": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "phoneNumber": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "otp": {
                    "type": "string"
                },
                "twoFactorCode": {
                    "type": "string"
                },
                "deviceInfo": {
                    "type": "string"
                }
            }
        },
        "RefreshRequest": {
            "type": "object",
            "properties": {
                "refreshToken": {
                    "type": "string"
                },
                "elevatedAccessToken": {
                    "type": "string"
                },
                "deviceInfo": {
                    "type": "string"
                }
            }
        },
        "TokenResponse": {
            "type": "object",
            "properties": {
                "tokenType": {
                    "type": "string"
                },
                "accessToken": {
                    "type": "string"
                },
                "expiresIn": {
                    "type": "integer"
                },
                "refreshToken": {
                    "type": "string"
                }
            }
        },
        "SignInResponse": {
            "type": "object",
            "properties": {
                "tokenType": {
                    "type": "string"
                },
                "accessToken": {
                    "type": "string"
                },
                "expiresIn": {
                    "type": "integer"
                },
                "refreshToken": {
                    "type": "string"
                },
                "requiresTwoFactor": {
                    "type": "boolean"
                }
            }
        },
        "WebAuthnAssertionOptionsRequest": {
            "type": "object",
            "properties": {
                "userIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "WebAuthnSignInRequest": {
            "type": "object",
            "properties": {
                "clientResponse": {
                    "type": "object"
                },
                "tfaCode": {
                    "type": "string"
                },
                "deviceInfo": {
                    "type": "string"
                }
            }
        },
        "WebAuthnAssertionResult": {
            "type": "object",
            "properties": {
                "userId": {
                    "type": "string"
                },
                "credentialId": {
                    "type": "string"
                }
            }
        },
        "UserResponse": {
            "type": "object"
        },
        "UserSessionResponse": {
            "type": "object"
        },
        "EditUserRequest": {
            "type": "object"
        },
        "ChangePasswordRequest": {
            "type": "object"
        },
        "TwoFactorAuthRequest": {
            "type": "object"
        },
        "TwoFactorAuthResponse": {
            "type": "object"
        },
        "PushSubscriptionRequest": {
            "type": "object"
        },
        "UnsubscribePushRequest": {
            "type": "object"
        },
        "WebAuthnCredentialResponse": {
            "type": "object"
        },
        "NugetStatsResponse": {
            "type": "object",
            "properties": {
                "packageId": {
                    "type": "string"
                },
                "version": {
                    "type": "string"
                },
                "totalDownloads": {
                    "type": "integer"
                },
                "versions": {
                    "type": "integer"
                }
            }
        },
        "GitHubStatsResponse": {
            "type": "object",
            "properties": {
                "fullName": {
                    "type": "string"
                },
                "stars": {
                    "type": "integer"
                },
                "forks": {
                    "type": "integer"
                },
                "watchers": {
                    "type": "integer"
                },
                "openIssues": {
                    "type": "integer"
                }
            }
        },
        "PricingPlan": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "number": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                },
                "price": {
                    "type": "number"
                },
                "currency": {
                    "type": "string"
                },
                "features": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "destination": {
                    "type": "string"
                }
            }
        },
        "ProcessPaymentRequest": {
            "type": "object",
            "properties": {
                "plan": {
                    "type": "string"
                },
                "cardholderName": {
                    "type": "string"
                },
                "cardNumber": {
                    "type": "string"
                },
                "expiryDate": {
                    "type": "string"
                },
                "cvv": {
                    "type": "string"
                }
            }
        },
        "PaymentResult": {
            "type": "object",
            "properties": {
                "receiptId": {
                    "type": "string"
                },
                "plan": {
                    "type": "string"
                },
                "amount": {
                    "type": "number"
                },
                "currency": {
                    "type": "string"
                },
                "maskedCard": {
                    "type": "string"
                },
                "receiptUrl": {
                    "type": "string"
                },
                "receiptUrlExpiresAt": {
                    "type": "string"
                }
            }
        },
        "NavigationItem": {
            "type": "object",
            "properties": {
                "text": {
                    "type": "string"
                },
                "url": {
                    "type": "string"
                },
                "icon": {
                    "type": "string"
                },
                "children": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/NavigationItem"
                    }
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

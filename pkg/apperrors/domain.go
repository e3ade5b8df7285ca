package apperrors

import (
	"fmt"
	"net/http"
)

// Domain error factories for chats, messages and users. Everything here is an
// expected, recoverable failure: the transport layer maps it to a response and
// the stores are left untouched by the rejected operation.

// --- Not found ---

// ErrChatNotFound reports a chat id that does not resolve.
func ErrChatNotFound(chatID uint) *AppError {
	return New(CodeNotFound, "chat", fmt.Sprintf("Chat with ID %d not found", chatID), http.StatusNotFound)
}

// ErrMessageNotFound reports a message id that does not resolve.
func ErrMessageNotFound(messageID uint) *AppError {
	return New(CodeNotFound, "message", fmt.Sprintf("Message with ID %d not found", messageID), http.StatusNotFound)
}

// ErrUserNotFound reports a single unresolved user id.
func ErrUserNotFound(userID uint) *AppError {
	return New(CodeNotFound, "user", fmt.Sprintf("User with ID %d not found", userID), http.StatusNotFound)
}

// ErrUsersNotFound reports every unresolved id of a bulk lookup at once.
func ErrUsersNotFound(missingIDs []uint) *AppError {
	return New(CodeNotFound, "user", "Some users were not found", http.StatusNotFound).
		WithDetails(map[string]interface{}{"missing_ids": missingIDs})
}

// --- Access denied ---

// ErrChatAccessDenied is the generic membership failure.
func ErrChatAccessDenied() *AppError {
	return New(CodeForbidden, "chat", "Access to this chat is denied", http.StatusForbidden)
}

// ErrChatActionDenied reports a missing role for a management action.
func ErrChatActionDenied(action string) *AppError {
	return New(CodeForbidden, "chat", fmt.Sprintf("You don't have permission to %s", action), http.StatusForbidden)
}

// ErrNotChatMember rejects message operations by non-members.
func ErrNotChatMember() *AppError {
	return New(CodeForbidden, "message", "You are not a member of this chat", http.StatusForbidden)
}

// ErrNotMessageAuthor rejects edits/deletes by anyone but the author.
func ErrNotMessageAuthor(action string) *AppError {
	return New(CodeForbidden, "message", fmt.Sprintf("You can only %s your own messages", action), http.StatusForbidden)
}

// --- Invalid operations ---

// ErrInvalidChatOperation is the base factory for structurally disallowed actions.
func ErrInvalidChatOperation(message string) *AppError {
	return New(CodeInvalidOperation, "chat", message, http.StatusBadRequest)
}

func ErrCannotModifyDirectChat() *AppError {
	return ErrInvalidChatOperation("Direct chats cannot be modified")
}

func ErrDirectChatWithSelf() *AppError {
	return ErrInvalidChatOperation("Cannot create direct chat with yourself")
}

func ErrCannotRemoveSelf() *AppError {
	return ErrInvalidChatOperation("Cannot remove yourself from the chat, use leave instead")
}

func ErrCannotRemoveOwner() *AppError {
	return ErrInvalidChatOperation("The chat owner cannot be removed")
}

func ErrCannotChangeOwnRole() *AppError {
	return ErrInvalidChatOperation("Cannot change your own role")
}

func ErrCannotChangeOwnerRole() *AppError {
	return ErrInvalidChatOperation("The owner's role cannot be changed")
}

func ErrOwnerCannotLeave() *AppError {
	return ErrInvalidChatOperation("Owner cannot leave the chat. Transfer ownership first or delete the chat")
}

func ErrUserNotMember(userID uint) *AppError {
	return ErrInvalidChatOperation(fmt.Sprintf("User %d is not a member of this chat", userID))
}

func ErrMessageAlreadyDeleted() *AppError {
	return New(CodeInvalidOperation, "message", "Message is already deleted", http.StatusBadRequest)
}

func ErrEditDeletedMessage() *AppError {
	return New(CodeInvalidOperation, "message", "Cannot edit a deleted message", http.StatusBadRequest)
}

// --- Auth domain ---

func ErrInvalidVerificationCode() *AppError {
	return New(CodeInvalidCredentials, "auth", "Invalid or expired verification code", http.StatusUnauthorized)
}

func ErrUserAlreadyExists(contact string) *AppError {
	return New(CodeAlreadyExists, "auth", fmt.Sprintf("User with contact %s already exists", contact), http.StatusConflict)
}

func ErrUserInactive() *AppError {
	return New(CodeForbidden, "auth", "User account is deactivated", http.StatusForbidden)
}

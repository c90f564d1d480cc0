package email

// ReceiptEmailTemplate é o recibo enviado após a aprovação do pagamento.
// Placeholders: título do item, nome do prestador, número do pedido,
// valor formatado e mensagem de rodapé.
const ReceiptEmailTemplate = `
<!DOCTYPE html>
<html lang="pt-BR">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Pagamento confirmado</title>
</head>
<body style="margin: 0; padding: 0; background-color: #f9fafb; font-family: Arial, sans-serif;">
	<table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%%" style="background-color: #f9fafb;">
		<tr>
			<td align="center" style="padding: 40px 20px;">
				<table role="presentation" cellspacing="0" cellpadding="0" border="0" width="600" class="container" style="background-color: #ffffff; border-radius: 8px;">
					<tr>
						<td style="padding: 32px;">
							<h1 style="margin: 0 0 16px; font-size: 22px; color: #111827;">Pagamento confirmado 🎉</h1>
							<p style="margin: 0 0 24px; color: #374151;">
								Sua compra de <strong>%s</strong> com %s foi aprovada.
							</p>
							<table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%%" style="border: 1px solid #e5e7eb; border-radius: 8px;">
								<tr>
									<td style="padding: 16px; color: #6b7280;">Pedido</td>
									<td style="padding: 16px; color: #111827; text-align: right;">%s</td>
								</tr>
								<tr>
									<td style="padding: 16px; color: #6b7280; border-top: 1px solid #e5e7eb;">Total</td>
									<td style="padding: 16px; color: #111827; text-align: right; border-top: 1px solid #e5e7eb;"><strong>R$ %.2f</strong></td>
								</tr>
							</table>
							<p style="margin: 24px 0 0; color: #6b7280; font-size: 13px;">%s</p>
						</td>
					</tr>
				</table>
			</td>
		</tr>
	</table>
</body>
</html>`
